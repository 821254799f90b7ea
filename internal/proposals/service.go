package proposals

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"simulacred/simulation-portal/simulation-portal-backend/internal/notifications"
	"simulacred/simulation-portal/simulation-portal-backend/internal/simulations"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/security"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/storage"
	"simulacred/simulation-portal/simulation-portal-backend/pkg/workflows"
)

// ErrNotSigned is returned when a signed document is requested for an unsigned proposal
var ErrNotSigned = errors.New("proposal not signed")

const pdfContentType = "application/pdf"

// SimulationStore is the part of the simulations service proposals depend on
type SimulationStore interface {
	Get(ctx context.Context, id uuid.UUID) (*simulations.Simulation, error)
	Schedule(ctx context.Context, id uuid.UUID, limit int) (*simulations.ScheduleResponse, error)
	MarkSigned(ctx context.Context, sim *simulations.Simulation, documentKey, fingerprint string, signedAt time.Time) error
}

// Notifier delivers the signed proposal notice to the client
type Notifier interface {
	SendProposalSigned(ctx context.Context, notice notifications.ProposalNotice) notifications.DeliveryReport
}

// Config holds storage settings for signed documents
type Config struct {
	Bucket     string
	PresignTTL time.Duration
}

// SignResult is returned after a proposal is signed
type SignResult struct {
	SimulationID  uuid.UUID                    `json:"simulation_id"`
	Status        string                       `json:"proposal_status"`
	DocumentKey   string                       `json:"document_key"`
	DownloadURL   string                       `json:"download_url"`
	Fingerprint   string                       `json:"signature_fingerprint"`
	SignedAt      time.Time                    `json:"signed_at"`
	Notifications notifications.DeliveryReport `json:"notifications"`
}

// Service renders, signs and stores proposal documents
type Service struct {
	simulations  SimulationStore
	generator    *Generator
	validator    security.Validator
	storage      storage.S3Client
	notifier     Notifier
	stateMachine *workflows.StateMachine
	config       Config
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new proposals service
func NewService(
	simulations SimulationStore,
	generator *Generator,
	validator security.Validator,
	storageClient storage.S3Client,
	notifier Notifier,
	config Config,
	logger *zap.Logger,
) *Service {
	if config.PresignTTL <= 0 {
		config.PresignTTL = 24 * time.Hour
	}
	return &Service{
		simulations:  simulations,
		generator:    generator,
		validator:    validator,
		storage:      storageClient,
		notifier:     notifier,
		stateMachine: workflows.NewStateMachine(),
		config:       config,
		logger:       logger,
		now:          time.Now,
	}
}

// Render produces the unsigned proposal PDF of a simulation
func (s *Service) Render(ctx context.Context, id uuid.UUID) (*simulations.Simulation, []byte, error) {
	sim, err := s.simulations.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	schedule, err := s.simulations.Schedule(ctx, id, PreviewMonths)
	if err != nil {
		return nil, nil, err
	}

	document, err := s.generator.Render(sim, schedule.Installments, s.now())
	if err != nil {
		s.logger.Error("Failed to render proposal", zap.Error(err), zap.String("simulation_id", id.String()))
		return nil, nil, err
	}
	return sim, document, nil
}

// Sign verifies the signature image, stores the signed PDF and moves the proposal to signed
func (s *Service) Sign(ctx context.Context, id uuid.UUID, signatureDataURL string) (*SignResult, error) {
	sim, err := s.simulations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sim.ProposalStatus == workflows.StatusSigned || !s.stateMachine.CanTransition(sim.ProposalStatus, workflows.StatusSigned) {
		return nil, fmt.Errorf("%w: proposal is %s", workflows.ErrInvalidTransition, sim.ProposalStatus)
	}

	signature, err := s.validator.ValidateSignature(ctx, signatureDataURL)
	if err != nil {
		return nil, err
	}

	document, err := s.generator.RenderSigned(sim, signature)
	if err != nil {
		s.logger.Error("Failed to render signed proposal", zap.Error(err), zap.String("simulation_id", id.String()))
		return nil, err
	}

	key := DocumentKey(id, signature.SignedAt)
	if err := s.storage.Upload(ctx, s.config.Bucket, key, bytes.NewReader(document), pdfContentType); err != nil {
		s.logger.Error("Failed to upload signed proposal", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to upload signed proposal: %w", err)
	}

	if err := s.simulations.MarkSigned(ctx, sim, key, signature.Fingerprint, signature.SignedAt); err != nil {
		if delErr := s.storage.Delete(ctx, s.config.Bucket, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned proposal", zap.Error(delErr), zap.String("key", key))
		}
		return nil, err
	}

	url, err := s.storage.GetPresignedURL(ctx, s.config.Bucket, key, s.config.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to presign signed proposal: %w", err)
	}

	s.logger.Info("Proposal signed",
		zap.String("simulation_id", id.String()),
		zap.String("key", key),
		zap.String("fingerprint", signature.Fingerprint))

	result := &SignResult{
		SimulationID: id,
		Status:       sim.ProposalStatus,
		DocumentKey:  key,
		DownloadURL:  url,
		Fingerprint:  signature.Fingerprint,
		SignedAt:     signature.SignedAt,
	}
	if s.notifier != nil {
		result.Notifications = s.notifier.SendProposalSigned(ctx, notifications.ProposalNotice{
			SimulationID:   id,
			ClientName:     sim.ClientName,
			Email:          sim.ClientEmail,
			Phone:          sim.ClientPhone,
			MonthlyPayment: sim.MonthlyPayment,
			LoanTermYears:  sim.LoanTermYears,
			DownloadURL:    url,
		})
	}
	return result, nil
}

// SignedDocumentURL presigns a fresh download link for a signed proposal
func (s *Service) SignedDocumentURL(ctx context.Context, id uuid.UUID) (string, error) {
	sim, err := s.simulations.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if sim.SignedDocumentKey == nil || *sim.SignedDocumentKey == "" {
		return "", ErrNotSigned
	}
	return s.storage.GetPresignedURL(ctx, s.config.Bucket, *sim.SignedDocumentKey, s.config.PresignTTL)
}

// DocumentKey is the object key of a signed proposal
func DocumentKey(id uuid.UUID, signedAt time.Time) string {
	return fmt.Sprintf("proposals/%s/signed-%d.pdf", id, signedAt.UTC().Unix())
}
