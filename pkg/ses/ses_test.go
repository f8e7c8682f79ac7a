package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeAPI) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestMailerSendBuildsInput(t *testing.T) {
	api := &fakeAPI{}
	m := NewMailerWithAPI(api, "noreply@caronas.example")

	require.NoError(t, m.Send(context.Background(), "ana@example.com", "Ride confirmed", "See you at 8"))

	require.NotNil(t, api.input)
	assert.Equal(t, []string{"ana@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "noreply@caronas.example", aws.ToString(api.input.Source))
	assert.Equal(t, "Ride confirmed", aws.ToString(api.input.Message.Subject.Data))
	assert.Equal(t, "See you at 8", aws.ToString(api.input.Message.Body.Text.Data))
}

func TestMailerSendClassifiesErrors(t *testing.T) {
	raw := &types.MessageRejected{Message: aws.String("Email address is not verified. The security token included is invalid")}
	m := NewMailerWithAPI(&fakeAPI{err: raw}, "noreply@caronas.example")

	err := m.Send(context.Background(), "ana@example.com", "s", "b")
	require.Error(t, err)
	assert.Equal(t, "ses: message rejected", err.Error())

	var target *types.MessageRejected
	assert.True(t, errors.As(err, &target))
}

func TestMailerSendUnknownError(t *testing.T) {
	m := NewMailerWithAPI(&fakeAPI{err: errors.New("boom")}, "noreply@caronas.example")
	err := m.Send(context.Background(), "ana@example.com", "s", "b")
	assert.EqualError(t, err, "ses: send failed")
}

func TestNewMailerRequiresSender(t *testing.T) {
	_, err := NewMailer(context.Background(), "us-east-1", "")
	assert.Error(t, err)
}
