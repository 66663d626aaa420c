package handler

import "miecredit/internal/audit"

// eventRecord is the normalized wire shape for one stored audit event.
type eventRecord struct {
	ID           int64          `json:"id"`
	TS           float64        `json:"ts"`
	RequestID    string         `json:"request_id"`
	EventType    string         `json:"event_type"`
	ModelVersion *string        `json:"model_version"`
	ApplicantID  *string        `json:"applicant_id"`
	Payload      map[string]any `json:"payload"`
}

type listResponse struct {
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
	Events []eventRecord `json:"events"`
}

func toRecord(e audit.StoredEvent) eventRecord {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	return eventRecord{
		ID:           e.ID,
		TS:           e.TS,
		RequestID:    e.RequestID,
		EventType:    e.EventType,
		ModelVersion: e.ModelVersion,
		ApplicantID:  e.SubjectID,
		Payload:      payload,
	}
}

func toRecords(events []audit.StoredEvent) []eventRecord {
	records := make([]eventRecord, len(events))
	for i, e := range events {
		records[i] = toRecord(e)
	}
	return records
}
