package recordstore

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/credflow/credflow/internal/domain/loan"
)

// The legacy store accumulated key spellings over the years. All tolerance
// for them lives here; the rest of the codebase only sees canonical
// structs. Writing always uses the first, canonical spelling.
var (
	keyFileID     = []string{"loanFileId", "loan_file_id", "fileId", "file_id"}
	keyClientID   = []string{"clientId", "client_id", "customerId"}
	keyKamID      = []string{"kamId", "kam_id", "accountManagerId"}
	keyProductID  = []string{"productId", "product_id", "product"}
	keyStatus     = []string{"status", "loanStatus", "loan_status"}
	keyReqAmount  = []string{"requestedAmount", "requested_amount", "loanAmount", "loan_amount"}
	keyApprAmount = []string{"approvedAmount", "approved_amount", "sanctionedAmount"}
	keyDisbAmount = []string{"disbursedAmount", "disbursed_amount"}
	keyReason     = []string{"decisionReason", "decision_reason", "remarks"}
	keyVersion    = []string{"version", "_version", "rev"}
	keyCreatedAt  = []string{"createdAt", "created_at", "createdOn"}
	keyUpdatedAt  = []string{"updatedAt", "updated_at", "lastModified"}

	keyFromStatus = []string{"fromStatus", "from_status", "previousStatus"}
	keyToStatus   = []string{"toStatus", "to_status", "newStatus"}
	keyChangedBy  = []string{"changedBy", "changed_by", "actor"}
	keyChangedAt  = []string{"changedAt", "changed_at", "timestamp"}
	keyNote       = []string{"reason", "note", "comment"}
)

func pickString(rec Record, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return s, true
		case float64:
			return decimal.NewFromFloat(s).String(), true
		case json.Number:
			return s.String(), true
		}
	}
	return "", false
}

func pickDecimal(rec Record, keys []string) (*decimal.Decimal, error) {
	s, ok := pickString(rec, keys)
	if !ok || strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("field %s: %q is not a decimal", keys[0], s)
	}
	return &d, nil
}

func pickInt(rec Record, keys []string) int64 {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		}
	}
	return 0
}

func pickTime(rec Record, keys []string) time.Time {
	s, ok := pickString(rec, keys)
	if !ok {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ApplicationFromRecord maps one legacy record into a canonical
// application. Status tokens are normalized on the way in.
func ApplicationFromRecord(rec Record) (*loan.Application, error) {
	fileID, ok := pickString(rec, keyFileID)
	if !ok || fileID == "" {
		return nil, fmt.Errorf("record has no loan file id")
	}
	clientID, _ := pickString(rec, keyClientID)
	productID, _ := pickString(rec, keyProductID)
	status, _ := pickString(rec, keyStatus)

	reqAmount, err := pickDecimal(rec, keyReqAmount)
	if err != nil {
		return nil, err
	}
	apprAmount, err := pickDecimal(rec, keyApprAmount)
	if err != nil {
		return nil, err
	}
	disbAmount, err := pickDecimal(rec, keyDisbAmount)
	if err != nil {
		return nil, err
	}

	app := &loan.Application{
		FileID:    fileID,
		ClientID:  clientID,
		ProductID: productID,
		Status:    loan.NormalizeStatus(status),
		Version:   pickInt(rec, keyVersion),
		CreatedAt: pickTime(rec, keyCreatedAt),
		UpdatedAt: pickTime(rec, keyUpdatedAt),
	}
	if id, ok := pickString(rec, []string{"id", "_id"}); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			app.ID = parsed
		}
	}
	if kamID, ok := pickString(rec, keyKamID); ok && kamID != "" {
		app.KamID = &kamID
	}
	if reqAmount != nil {
		app.RequestedAmount = *reqAmount
	}
	app.ApprovedAmount = apprAmount
	app.DisbursedAmount = disbAmount
	if reason, ok := pickString(rec, keyReason); ok && reason != "" {
		app.DecisionReason = &reason
	}
	return app, nil
}

// ApplicationToRecord writes an application back using canonical keys only.
func ApplicationToRecord(app *loan.Application) Record {
	rec := Record{
		"loanFileId":      app.FileID,
		"clientId":        app.ClientID,
		"productId":       app.ProductID,
		"status":          string(app.Status),
		"requestedAmount": app.RequestedAmount.String(),
		"version":         app.Version,
		"updatedAt":       app.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if app.ID != uuid.Nil {
		rec["id"] = app.ID.String()
	}
	if app.KamID != nil {
		rec["kamId"] = *app.KamID
	}
	if app.ApprovedAmount != nil {
		rec["approvedAmount"] = app.ApprovedAmount.String()
	}
	if app.DisbursedAmount != nil {
		rec["disbursedAmount"] = app.DisbursedAmount.String()
	}
	if app.DecisionReason != nil {
		rec["decisionReason"] = *app.DecisionReason
	}
	if !app.CreatedAt.IsZero() {
		rec["createdAt"] = app.CreatedAt.UTC().Format(time.RFC3339)
	}
	return rec
}

// HistoryFromRecord maps one legacy history record.
func HistoryFromRecord(rec Record) (*loan.HistoryEntry, error) {
	fileID, ok := pickString(rec, keyFileID)
	if !ok || fileID == "" {
		return nil, fmt.Errorf("history record has no loan file id")
	}
	from, _ := pickString(rec, keyFromStatus)
	to, _ := pickString(rec, keyToStatus)
	changedBy, _ := pickString(rec, keyChangedBy)

	entry := &loan.HistoryEntry{
		ID:         pickInt(rec, []string{"id", "_id", "seq"}),
		FileID:     fileID,
		FromStatus: loan.NormalizeStatus(from),
		ToStatus:   loan.NormalizeStatus(to),
		ChangedBy:  changedBy,
		ChangedAt:  pickTime(rec, keyChangedAt),
	}
	if note, ok := pickString(rec, keyNote); ok && note != "" {
		entry.Reason = &note
	}
	return entry, nil
}

// HistoryToRecord writes a history entry using canonical keys only.
func HistoryToRecord(entry *loan.HistoryEntry) Record {
	rec := Record{
		"loanFileId": entry.FileID,
		"fromStatus": string(entry.FromStatus),
		"toStatus":   string(entry.ToStatus),
		"changedBy":  entry.ChangedBy,
		"changedAt":  entry.ChangedAt.UTC().Format(time.RFC3339),
	}
	if entry.Reason != nil {
		rec["reason"] = *entry.Reason
	}
	return rec
}
