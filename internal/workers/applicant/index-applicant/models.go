// internal/workers/applicant/index-applicant/models.go
package indexapplicant

type Input struct {
	ApplicantID int64 `json:"applicantId"`
}

type Output struct {
	Indexed    bool   `json:"indexed"`
	DocumentID string `json:"documentId"`
	IndexedAt  string `json:"indexedAt"`
}
