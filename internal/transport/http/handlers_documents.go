package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tributo/internal/access"
	"tributo/internal/emission"
	"tributo/internal/fiscal"
	"tributo/internal/hacienda"
	id "tributo/pkg/domain"
	dErrors "tributo/pkg/domain-errors"
)

// EmissionService is the slice of the emission facade the handlers need.
type EmissionService interface {
	Prepare(ctx context.Context, req emission.Request) (*emission.Document, error)
	RecordAuthorityResponse(ctx context.Context, orgID id.OrgID, docKey string, code string, rawResponse string) hacienda.Classification
}

type prepareLineRequest struct {
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxIncluded bool            `json:"tax_included"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Discount    decimal.Decimal `json:"discount"`
}

type prepareRequest struct {
	OrgID        string               `json:"org_id"`
	Branch       string               `json:"branch"`
	Terminal     string               `json:"terminal"`
	DocumentType string               `json:"document_type"`
	Situation    string               `json:"situation"`
	IssuerID     string               `json:"issuer_id"`
	EmissionDate *time.Time           `json:"emission_date,omitempty"`
	Lines        []prepareLineRequest `json:"lines"`
}

type lineResponse struct {
	BaseUnitPrice decimal.Decimal `json:"base_unit_price"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	NetSubtotal   decimal.Decimal `json:"net_subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

type prepareResponse struct {
	Clave       string            `json:"clave"`
	Sequence    int64             `json:"sequence"`
	Consecutive string            `json:"consecutive"`
	Status      id.DocumentStatus `json:"status"`
	EmittedAt   time.Time         `json:"emitted_at"`
	Lines       []lineResponse    `json:"lines"`
	NetTotal    decimal.Decimal   `json:"net_total"`
	TaxTotal    decimal.Decimal   `json:"tax_total"`
	GrandTotal  decimal.Decimal   `json:"grand_total"`
}

type authorityResponseRequest struct {
	OrgID       string `json:"org_id"`
	Code        string `json:"code"`
	RawResponse string `json:"raw_response"`
}

type classificationResponse struct {
	Code        string        `json:"code"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Remediation string        `json:"remediation"`
	Kind        hacienda.Kind `json:"kind"`
	Retryable   bool          `json:"retryable"`
}

func handlePrepare(svc EmissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body prepareRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body"))
			return
		}

		req, err := body.toDomain()
		if err != nil {
			writeError(w, err)
			return
		}

		doc, err := svc.Prepare(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}

		resp := prepareResponse{
			Clave:       doc.Clave,
			Sequence:    doc.Sequence,
			Consecutive: doc.Consecutive,
			Status:      doc.Status,
			EmittedAt:   doc.EmittedAt,
			Lines:       make([]lineResponse, 0, len(doc.Lines)),
			NetTotal:    doc.NetTotal,
			TaxTotal:    doc.TaxTotal,
			GrandTotal:  doc.GrandTotal,
		}
		for _, line := range doc.Lines {
			resp.Lines = append(resp.Lines, lineResponse(line))
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func handleAuthorityResponse(svc EmissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docKey := chi.URLParam(r, "clave")

		var body authorityResponseRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body"))
			return
		}
		orgID, err := id.ParseOrgID(body.OrgID)
		if err != nil {
			writeError(w, err)
			return
		}
		if body.Code == "" {
			writeError(w, dErrors.New(dErrors.CodeInvalidInput, "code is required"))
			return
		}

		c := svc.RecordAuthorityResponse(r.Context(), orgID, docKey, body.Code, body.RawResponse)
		writeJSON(w, http.StatusOK, classificationResponse{
			Code:        c.Code,
			Title:       c.Title,
			Description: c.Description,
			Remediation: c.Remediation,
			Kind:        c.Kind,
			Retryable:   c.Retryable(),
		})
	}
}

func (b prepareRequest) toDomain() (emission.Request, error) {
	orgID, err := id.ParseOrgID(b.OrgID)
	if err != nil {
		return emission.Request{}, err
	}
	branch, err := id.ParseBranchCode(b.Branch)
	if err != nil {
		return emission.Request{}, err
	}
	terminal, err := id.ParseTerminalCode(b.Terminal)
	if err != nil {
		return emission.Request{}, err
	}
	docType, err := id.ParseDocumentType(b.DocumentType)
	if err != nil {
		return emission.Request{}, err
	}
	situation := id.SituationNormal
	if b.Situation != "" {
		situation, err = id.ParseSituation(b.Situation)
		if err != nil {
			return emission.Request{}, err
		}
	}
	if len(b.Lines) == 0 {
		return emission.Request{}, dErrors.New(dErrors.CodeInvalidInput, "at least one line is required")
	}

	req := emission.Request{
		OrgID:        orgID,
		Branch:       branch,
		Terminal:     terminal,
		DocumentType: docType,
		Situation:    situation,
		IssuerID:     b.IssuerID,
		Lines:        make([]fiscal.LineInput, 0, len(b.Lines)),
	}
	if b.EmissionDate != nil {
		req.EmissionDate = *b.EmissionDate
	}
	for _, line := range b.Lines {
		req.Lines = append(req.Lines, fiscal.LineInput(line))
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates domain errors to HTTP responses with a consistent
// JSON envelope. Business-rule denials carry their operator-facing message
// verbatim.
func writeError(w http.ResponseWriter, err error) {
	var (
		expired *access.SubscriptionExpiredError
		quota   *access.QuotaExceededError
		feature *access.PlanFeatureError
	)
	switch {
	case errors.As(err, &expired):
		writeJSON(w, http.StatusPaymentRequired, errorBody("subscription_expired", err))
		return
	case errors.As(err, &quota):
		writeJSON(w, http.StatusTooManyRequests, errorBody("quota_exceeded", err))
		return
	case errors.As(err, &feature):
		writeJSON(w, http.StatusForbidden, errorBody("plan_feature", err))
		return
	}

	code := dErrors.CodeOf(err)
	writeJSON(w, statusForCode(code), errorBody(string(code), err))
}

func errorBody(code string, err error) map[string]string {
	return map[string]string{"error": code, "message": err.Error()}
}

func statusForCode(code dErrors.Code) int {
	switch code {
	case dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		return http.StatusConflict
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
