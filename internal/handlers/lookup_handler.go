package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"findphone-functions/internal/adapters/storage"
	"findphone-functions/internal/config"
	"findphone-functions/internal/metrics"
	"findphone-functions/internal/models"
	"findphone-functions/internal/push"
	"findphone-functions/pkg/lambda"
)

// ActivateCodeHeader carries the activation code in header lookups
const ActivateCodeHeader = "Activate-Code"

// SkillReply is spoken by the voice assistant after the push went out
const SkillReply = "即将响铃。"

// ErrNoPushToken is returned when a stored record has no push_token
var ErrNoPushToken = errors.New("activation record has no push_token")

// SkillResponse is the success envelope of the voice-assistant skill platform
type SkillResponse struct {
	ReturnCode          string           `json:"returnCode"`
	ReturnErrorSolution string           `json:"returnErrorSolution"`
	ReturnMessage       string           `json:"returnMessage"`
	ReturnValue         SkillReturnValue `json:"returnValue"`
}

// SkillReturnValue is the skill result inside SkillResponse
type SkillReturnValue struct {
	Reply       string `json:"reply"`
	ResultType  string `json:"resultType"`
	ExecuteCode string `json:"executeCode"`
}

// NewSkillSuccess returns the envelope reporting a successful push
func NewSkillSuccess() SkillResponse {
	return SkillResponse{
		ReturnCode: "0",
		ReturnValue: SkillReturnValue{
			Reply:       SkillReply,
			ResultType:  "RESULT",
			ExecuteCode: "SUCCESS",
		},
	}
}

// LookupHandler resolves an activation code and rings the device
type LookupHandler struct {
	storage *storage.Factory
	sender  push.Sender
	hms     config.HMSConfig
	lookup  config.LookupConfig
	logger  *logrus.Logger
}

// NewLookupHandler creates a lookup handler for the configured request variant
func NewLookupHandler(cfg *config.Config, factory *storage.Factory, sender push.Sender, logger *logrus.Logger) *LookupHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	lookup := cfg.Lookup
	if lookup.Variant != config.LookupVariantQuery && lookup.Variant != config.LookupVariantHeader {
		logger.WithField("variant", lookup.Variant).Warn("Unknown lookup variant, using query")
		lookup.Variant = config.LookupVariantQuery
	}

	return &LookupHandler{
		storage: factory,
		sender:  sender,
		hms:     cfg.HMS,
		lookup:  lookup,
		logger:  logger,
	}
}

// Variant returns the request variant this handler serves
func (h *LookupHandler) Variant() string {
	return h.lookup.Variant
}

// Handle dispatches the event to the configured request variant
func (h *LookupHandler) Handle(ctx context.Context, inv *lambda.Invocation, raw []byte) (*lambda.Result, error) {
	if inv == nil {
		inv = &lambda.Invocation{}
	}

	var result *lambda.Result
	var err error
	if h.lookup.Variant == config.LookupVariantHeader {
		result, err = h.handleHeader(ctx, inv, raw)
	} else {
		result, err = h.handleQuery(ctx, inv, raw)
	}

	metrics.IncLookup(h.lookup.Variant, lookupOutcome(result, err))
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": inv.RequestID,
			"variant":    h.lookup.Variant,
		}).WithError(err).Error("Lookup failed")
	}
	return result, err
}

// handleQuery serves requests carrying k={code}[/aligenie/{id}] in the query
// string. The raw event is logged to storage first.
func (h *LookupHandler) handleQuery(ctx context.Context, inv *lambda.Invocation, raw []byte) (*lambda.Result, error) {
	evt, err := lambda.DecodeEvent(raw)
	if err != nil {
		return nil, err
	}

	bucket, err := h.storage.Open(inv.Region, storageCredentials(inv))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	defer bucket.Close()

	h.saveAuditLog(ctx, bucket, inv.RequestID, evt)

	k := evt.QueryParam("k")
	if k == "" {
		return errorResult(http.StatusInternalServerError, MsgMissingK), nil
	}

	code := models.CodeFromK(k)
	record, err := h.fetchRecord(ctx, bucket, code)
	if err != nil {
		return nil, err
	}

	log := h.logger.WithFields(logrus.Fields{"request_id": inv.RequestID, "code": code})
	if models.IsAliGenieK(k) {
		log.Info("Returning verify code")
		return lambda.TextResult(record.VerifyCode), nil
	}

	if record.PushToken == "" {
		return nil, ErrNoPushToken
	}
	if !h.hms.HasCredentials() {
		log.Error("HMS credentials are not configured")
		return errorResult(http.StatusInternalServerError, MsgMissingHMSCredentials), nil
	}

	return h.ring(ctx, log, record.PushToken)
}

// handleHeader serves requests carrying the code in the Activate-Code header.
// Paths containing the AliGenie marker get the verification secret.
func (h *LookupHandler) handleHeader(ctx context.Context, inv *lambda.Invocation, raw []byte) (*lambda.Result, error) {
	evt, err := lambda.DecodeEvent(raw)
	if err != nil {
		return nil, err
	}

	if strings.Contains(evt.RawPath, models.AliGenieMarker) {
		return lambda.TextResult(h.lookup.VerifySecret), nil
	}

	code := evt.Header(ActivateCodeHeader)
	if code == "" {
		return errorResult(http.StatusInternalServerError, MsgMissingActivateCode), nil
	}

	log := h.logger.WithFields(logrus.Fields{"request_id": inv.RequestID, "code": code})
	if !h.hms.HasCredentials() {
		log.Error("HMS credentials are not configured")
		return errorResult(http.StatusInternalServerError, MsgMissingHMSCredentials), nil
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

	record, err := h.fetchRecord(ctx, bucket, code)
	if err != nil {
		return nil, err
	}
	if record.PushToken == "" {
		return nil, ErrNoPushToken
	}

	return h.ring(ctx, log, record.PushToken)
}

func (h *LookupHandler) fetchRecord(ctx context.Context, bucket storage.FileStorage, code string) (*models.ActivationRecord, error) {
	data, err := bucket.Retrieve(ctx, models.ActivationKey(code))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activation record: %w", err)
	}
	return models.ParseActivationRecord(data)
}

func (h *LookupHandler) ring(ctx context.Context, log *logrus.Entry, pushToken string) (*lambda.Result, error) {
	if _, err := h.sender.Send(ctx, pushToken, push.DefaultMessage); err != nil {
		return nil, fmt.Errorf("failed to send push: %w", err)
	}
	log.Info("Push sent")
	return lambda.HTTPResult(http.StatusOK, NewSkillSuccess()), nil
}

// saveAuditLog writes the raw event to logs/{request_id}. Failures are logged
// and never affect the response.
func (h *LookupHandler) saveAuditLog(ctx context.Context, bucket storage.FileStorage, requestID string, evt *lambda.Event) {
	log := h.logger.WithField("request_id", requestID)

	data := []byte(jsonText(evt.Raw))
	if err := bucket.Store(ctx, models.AuditLogKey(requestID), data, &storage.StoreOptions{
		ContentType: "application/json",
	}); err != nil {
		metrics.IncAuditLogFailure()
		log.WithError(err).Error("Failed to save log to storage")
	}
}

func lookupOutcome(result *lambda.Result, err error) string {
	switch {
	case err != nil || result == nil:
		return metrics.OutcomeFault
	case result.IsText():
		return metrics.OutcomeVerify
	case result.HTTP.StatusCode == http.StatusOK:
		return metrics.OutcomeSuccess
	default:
		return metrics.OutcomeInvalid
	}
}
