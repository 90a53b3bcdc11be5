package models

// Stats is the dashboard summary derived from the in-memory collection.
type Stats struct {
	TotalDocuments  int                      `json:"total_documents"`
	PendingApproval int                      `json:"pending_approval"`
	ExpiringSoon    int                      `json:"expiring_soon"`
	Expired         int                      `json:"expired"`
	Published       int                      `json:"published"`
	Archived        int                      `json:"archived"`
	ByCategory      map[DocumentCategory]int `json:"by_category"`
}
