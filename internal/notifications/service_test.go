package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockEmailAPI struct {
	mock.Mock
}

func (m *MockEmailAPI) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sesv2.SendEmailOutput), args.Error(1)
}

type MockSMSAPI struct {
	mock.Mock
}

func (m *MockSMSAPI) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sns.PublishOutput), args.Error(1)
}

func testNotice() ProposalNotice {
	return ProposalNotice{
		SimulationID:   uuid.New(),
		ClientName:     "Maria Silva",
		Email:          "maria@example.com",
		Phone:          "(11) 98765-4321",
		MonthlyPayment: 4114.45,
		LoanTermYears:  30,
		DownloadURL:    "https://files.example.com/proposals/abc.pdf",
	}
}

func statusOf(report DeliveryReport, channel string) ChannelDeliveryStatus {
	for _, ch := range report.Channels {
		if ch.Channel == channel {
			return ch
		}
	}
	return ChannelDeliveryStatus{}
}

func TestSendProposalSignedBothChannels(t *testing.T) {
	email := new(MockEmailAPI)
	sms := new(MockSMSAPI)
	ctx := context.Background()
	notice := testNotice()

	email.On("SendEmail", ctx, mock.MatchedBy(func(in *sesv2.SendEmailInput) bool {
		body := aws.ToString(in.Content.Simple.Body.Text.Data)
		return aws.ToString(in.FromEmailAddress) == "propostas@simulacred.com.br" &&
			in.Destination.ToAddresses[0] == notice.Email &&
			strings.Contains(body, "R$ 4.114,45") &&
			strings.Contains(body, notice.DownloadURL)
	})).Return(&sesv2.SendEmailOutput{MessageId: aws.String("ses-1")}, nil)

	sms.On("Publish", ctx, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.PhoneNumber) == "+5511987654321"
	})).Return(&sns.PublishOutput{MessageId: aws.String("sns-1")}, nil)

	service := NewService(email, sms, "propostas@simulacred.com.br", zap.NewNop())
	report := service.SendProposalSigned(ctx, notice)

	assert.True(t, report.Delivered())
	assert.Equal(t, ChannelDeliveryStatus{Channel: ChannelEmail, Status: StatusSent, ProviderID: "ses-1"}, statusOf(report, ChannelEmail))
	assert.Equal(t, ChannelDeliveryStatus{Channel: ChannelSMS, Status: StatusSent, ProviderID: "sns-1"}, statusOf(report, ChannelSMS))
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestSendProposalSignedChannelFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	email := new(MockEmailAPI)
	sms := new(MockSMSAPI)
	ctx := context.Background()

	email.On("SendEmail", ctx, mock.Anything).Return(nil, errors.New("throttled"))
	sms.On("Publish", ctx, mock.Anything).Return(&sns.PublishOutput{}, nil)

	service := NewService(email, sms, "propostas@simulacred.com.br", zap.New(core))
	report := service.SendProposalSigned(ctx, testNotice())

	assert.True(t, report.Delivered())
	failed := statusOf(report, ChannelEmail)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "throttled", failed.Error)
	require.Equal(t, 1, logs.FilterMessage("Failed to send proposal email").Len())
}

func TestSendProposalSignedSkipsUnconfiguredChannels(t *testing.T) {
	email := new(MockEmailAPI)

	t.Run("no sender disables email", func(t *testing.T) {
		service := NewService(email, nil, "", zap.NewNop())
		report := service.SendProposalSigned(context.Background(), testNotice())

		assert.False(t, report.Delivered())
		assert.Equal(t, StatusSkipped, statusOf(report, ChannelEmail).Status)
		assert.Equal(t, StatusSkipped, statusOf(report, ChannelSMS).Status)
		email.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything)
	})

	t.Run("invalid phone skips sms", func(t *testing.T) {
		sms := new(MockSMSAPI)
		notice := testNotice()
		notice.Phone = "123"

		service := NewService(nil, sms, "", zap.NewNop())
		report := service.SendProposalSigned(context.Background(), notice)

		assert.Equal(t, StatusSkipped, statusOf(report, ChannelSMS).Status)
		sms.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestToE164(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(11) 98765-4321", "+5511987654321"},
		{"+55 11 98765-4321", "+5511987654321"},
		{"(21) 3456-7890", "+552134567890"},
		{"98765-4321", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ToE164(tt.input))
		})
	}
}
