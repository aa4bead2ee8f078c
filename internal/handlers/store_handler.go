package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"findphone-functions/internal/adapters/storage"
	"findphone-functions/internal/metrics"
	"findphone-functions/internal/models"
	"findphone-functions/pkg/lambda"
)

// StoreResponse is the body returned after an activation record is written
type StoreResponse struct {
	Success bool        `json:"success"`
	Code    interface{} `json:"code"`
}

// StoreHandler writes activation records to object storage
type StoreHandler struct {
	storage *storage.Factory
	logger  *logrus.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(factory *storage.Factory, logger *logrus.Logger) *StoreHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &StoreHandler{
		storage: factory,
		logger:  logger,
	}
}

// Handle stores the activation record carried in the event body.
// Validation problems come back as error envelopes; storage failures are faults.
func (h *StoreHandler) Handle(ctx context.Context, inv *lambda.Invocation, raw []byte) (*lambda.Result, error) {
	if inv == nil {
		inv = &lambda.Invocation{}
	}
	log := h.logger.WithField("request_id", inv.RequestID)

	evt, err := lambda.ParseEvent(raw)
	if err != nil {
		if errors.Is(err, lambda.ErrNotHTTPTrigger) {
			log.WithError(err).Warn("Rejected event")
			return notHTTPTriggerResult(err, raw), nil
		}
		return nil, err
	}

	body, err := evt.DecodedBody()
	if err != nil {
		return nil, err
	}

	record, err := models.ParseActivationRecord(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request body: %w", err)
	}

	if err := record.Validate(); err != nil {
		if models.IsMissingField(err) {
			log.WithError(err).Info("Invalid activation request")
			return errorResult(http.StatusBadRequest, err.Error()), nil
		}
		return nil, err
	}

	bucket, err := h.storage.Open(inv.Region, storageCredentials(inv))
	if err != nil {
		if msg, ok := accessErrorMessage(err); ok {
			log.WithError(err).Error("Storage is not accessible")
			return errorResult(http.StatusInternalServerError, msg), nil
		}
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer bucket.Close()

	data, err := record.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode activation record: %w", err)
	}

	opts := &storage.StoreOptions{ContentType: "application/json"}
	if err := bucket.Store(ctx, record.Key(), data, opts); err != nil {
		return nil, fmt.Errorf("failed to store activation record: %w", err)
	}

	metrics.IncActivationStored()
	log.WithField("code", record.Code).Info("Activation record stored")

	return lambda.HTTPResult(http.StatusCreated, jsonText(StoreResponse{
		Success: true,
		Code:    record.Fields["code"],
	})), nil
}
