package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/ticket-checkout/internal/common"
	"github.com/noah-isme/ticket-checkout/internal/pricing"
)

// Handler exposes the checkout pricing operations over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler wires a Handler with a validator that reports JSON field names.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: NewValidator()}
}

// NewValidator returns a validator whose errors name fields by their JSON tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Quote prices a cart against the supplied event snapshots.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload quoteRequest
	if !h.decode(w, r, &payload) {
		return
	}
	out, err := h.Svc.Quote(r.Context(), payload.toInput())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

// Preview returns the live total for a purchase selection.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload previewRequest
	if !h.decode(w, r, &payload) {
		return
	}
	out, err := h.Svc.Preview(r.Context(), payload.toInput())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

// Fee returns the per-unit fee for ?price=<cents>&taxed=<bool>.
func (h *Handler) Fee(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("price"))
	if raw == "" {
		common.WriteError(w, common.Unprocessable("invalid query", []FieldError{{Field: "price", Rule: "required"}}))
		return
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || price < 0 {
		common.WriteError(w, common.Unprocessable("invalid query", []FieldError{{Field: "price", Rule: "gte", Param: "0"}}))
		return
	}
	if price > pricing.MaxPrice {
		common.WriteError(w, common.Unprocessable("invalid query", []FieldError{{Field: "price", Rule: "lte", Param: strconv.FormatInt(pricing.MaxPrice, 10)}}))
		return
	}
	taxed := false
	if v := strings.TrimSpace(q.Get("taxed")); v != "" {
		taxed, err = strconv.ParseBool(v)
		if err != nil {
			common.WriteError(w, common.Unprocessable("invalid query", []FieldError{{Field: "taxed", Rule: "boolean"}}))
			return
		}
	}
	common.Data(w, http.StatusOK, h.Svc.Fee(price, taxed))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		common.WriteError(w, common.BadRequest("invalid payload", err))
		return false
	}
	v := h.Validate
	if v == nil {
		v = NewValidator()
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			common.WriteError(w, common.Unprocessable("invalid payload", fieldErrors(verrs)))
			return false
		}
		common.WriteError(w, common.BadRequest("invalid payload", err))
		return false
	}
	return true
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		out = append(out, FieldError{Field: field, Rule: fe.Tag(), Param: fe.Param()})
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		common.WriteError(w, common.Unprocessable(err.Error(), []FieldError{{Field: "items", Rule: "min", Param: "1"}}))
	case errors.Is(err, ErrInvalidPreviewMode):
		common.WriteError(w, common.Unprocessable(err.Error(), []FieldError{{Field: "mode", Rule: "oneof"}}))
	case errors.Is(err, ErrInvalidCatalog):
		common.WriteError(w, common.NewAppError("INVALID_CATALOG", err.Error(), http.StatusUnprocessableEntity, err))
	case errors.Is(err, ErrInvalidItem):
		common.WriteError(w, common.NewAppError("INVALID_ITEM", err.Error(), http.StatusUnprocessableEntity, err))
	case errors.Is(err, ErrUnknownEvent):
		common.WriteError(w, common.NewAppError("UNKNOWN_EVENT", err.Error(), http.StatusUnprocessableEntity, err))
	case errors.Is(err, ErrUnpriceable):
		common.WriteError(w, common.NewAppError("UNPRICEABLE", err.Error(), http.StatusConflict, err))
	default:
		common.WriteError(w, err)
	}
}
