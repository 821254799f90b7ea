package notifications

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/config"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/formatters"
)

// EmailAPI is the subset of the SES v2 client used for proposal emails
type EmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SMSAPI is the subset of the SNS client used for proposal SMS
type SMSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Service delivers proposal notices over email and SMS. A nil client disables its channel.
type Service struct {
	email  EmailAPI
	sms    SMSAPI
	sender string
	logger *zap.Logger
}

// NewService creates a notification service from explicit clients
func NewService(email EmailAPI, sms SMSAPI, sender string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == "" {
		email = nil
	}
	return &Service{
		email:  email,
		sms:    sms,
		sender: sender,
		logger: logger,
	}
}

// NewServiceFromConfig builds the AWS clients for the configured channels
func NewServiceFromConfig(ctx context.Context, cfg config.NotificationsConfig, logger *zap.Logger) (*Service, error) {
	if cfg.EmailSender == "" && !cfg.SMSEnabled {
		return NewService(nil, nil, "", logger), nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var email EmailAPI
	if cfg.EmailSender != "" {
		email = sesv2.NewFromConfig(awsCfg)
	}
	var sms SMSAPI
	if cfg.SMSEnabled {
		sms = sns.NewFromConfig(awsCfg)
	}
	return NewService(email, sms, cfg.EmailSender, logger), nil
}

// SendProposalSigned notifies the client on every configured channel.
// Channel failures are logged and reported, never returned.
func (s *Service) SendProposalSigned(ctx context.Context, notice ProposalNotice) DeliveryReport {
	report := DeliveryReport{SimulationID: notice.SimulationID}
	report.Channels = append(report.Channels, s.sendEmail(ctx, notice), s.sendSMS(ctx, notice))

	s.logger.Info("Proposal notice processed",
		zap.String("simulation_id", notice.SimulationID.String()),
		zap.Bool("delivered", report.Delivered()))
	return report
}

func (s *Service) sendEmail(ctx context.Context, notice ProposalNotice) ChannelDeliveryStatus {
	status := ChannelDeliveryStatus{Channel: ChannelEmail, Status: StatusSkipped}
	if s.email == nil || notice.Email == "" {
		return status
	}

	subject, text, html := proposalEmail(notice)
	out, err := s.email.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &sestypes.Destination{
			ToAddresses: []string{notice.Email},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(text), Charset: aws.String("UTF-8")},
					Html: &sestypes.Content{Data: aws.String(html), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		s.logger.Error("Failed to send proposal email",
			zap.Error(err),
			zap.String("simulation_id", notice.SimulationID.String()))
		status.Status = StatusFailed
		status.Error = err.Error()
		return status
	}

	status.Status = StatusSent
	if out != nil && out.MessageId != nil {
		status.ProviderID = *out.MessageId
	}
	return status
}

func (s *Service) sendSMS(ctx context.Context, notice ProposalNotice) ChannelDeliveryStatus {
	status := ChannelDeliveryStatus{Channel: ChannelSMS, Status: StatusSkipped}
	phone := ToE164(notice.Phone)
	if s.sms == nil || phone == "" {
		return status
	}

	out, err := s.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(proposalSMS(notice)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	})
	if err != nil {
		s.logger.Error("Failed to send proposal SMS",
			zap.Error(err),
			zap.String("simulation_id", notice.SimulationID.String()))
		status.Status = StatusFailed
		status.Error = err.Error()
		return status
	}

	status.Status = StatusSent
	if out != nil && out.MessageId != nil {
		status.ProviderID = *out.MessageId
	}
	return status
}

// ToE164 converts a Brazilian phone number to +55 format. Invalid numbers yield "".
func ToE164(phone string) string {
	digits := formatters.Digits(phone)
	if strings.HasPrefix(digits, "55") && len(digits) >= 12 {
		digits = digits[2:]
	}
	if !formatters.ValidatePhone(digits) {
		return ""
	}
	return "+55" + digits
}

func proposalEmail(notice ProposalNotice) (subject, text, html string) {
	subject = "Sua proposta de financiamento foi assinada"
	payment := formatters.FormatCurrency(notice.MonthlyPayment)

	text = fmt.Sprintf("Olá %s,\n\nRecebemos a assinatura da sua proposta de financiamento imobiliário.\n"+
		"Parcela mensal: %s em %d anos.\n\nBaixe sua proposta assinada: %s\n\n"+
		"Nossa equipe entrará em contato para os próximos passos.",
		notice.ClientName, payment, notice.LoanTermYears, notice.DownloadURL)

	html = fmt.Sprintf("<p>Olá %s,</p><p>Recebemos a assinatura da sua proposta de financiamento imobiliário.</p>"+
		"<p>Parcela mensal: <strong>%s</strong> em %d anos.</p>"+
		"<p><a href=\"%s\">Baixar proposta assinada</a></p>"+
		"<p>Nossa equipe entrará em contato para os próximos passos.</p>",
		notice.ClientName, payment, notice.LoanTermYears, notice.DownloadURL)
	return subject, text, html
}

func proposalSMS(notice ProposalNotice) string {
	return fmt.Sprintf("SimulaCred: proposta assinada. Parcela %s. Baixe em %s",
		formatters.FormatCurrency(notice.MonthlyPayment), notice.DownloadURL)
}
