package testsupport

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh record id in the backend's format.
func NewID() string {
	return uuid.NewString()
}

// FacilityRecord builds one facility fixture with the given name and status.
func FacilityRecord(name, status string) map[string]any {
	return map[string]any{
		"_id":       NewID(),
		"name":      name,
		"location":  "Springfield",
		"status":    status,
		"price":     2500.0,
		"rating":    4.5,
		"ownerId":   NewID(),
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
}

// FacilityRecords builds n facility fixtures, all with the given status and
// names "facility-1" through "facility-n".
func FacilityRecords(n int, status string) []map[string]any {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = FacilityRecord(fmt.Sprintf("facility-%d", i+1), status)
	}
	return records
}

// CustomerRecord builds one customer fixture.
func CustomerRecord(name, status string) map[string]any {
	return map[string]any{
		"_id":       NewID(),
		"name":      name,
		"email":     name + "@example.com",
		"phone":     "555-0100",
		"status":    status,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
}

// ReviewRecord builds one review fixture attached to a facility.
func ReviewRecord(facilityID string, rating int, status string) map[string]any {
	return map[string]any{
		"_id":        NewID(),
		"facilityId": facilityID,
		"customerId": NewID(),
		"rating":     rating,
		"comment":    "fine place",
		"status":     status,
		"createdAt":  time.Now().UTC().Format(time.RFC3339),
	}
}
