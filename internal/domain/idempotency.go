package domain

// StoredResponse is a response remembered under an Idempotency-Key.
// Fingerprint identifies the request that produced it.
type StoredResponse struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
}
