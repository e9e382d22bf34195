package resource

import "time"

// Resource families served by the dashboard. Each value is both the REST
// collection segment and the cache key prefix for that resource.
var (
	FamilyFacilities       = FamilyOf("Facility")
	FamilyPendingListings  = FamilyOf("PendingListing")
	FamilyCustomers        = FamilyOf("Customer")
	FamilyServiceProviders = FamilyOf("ServiceProvider")
	FamilyReviews          = FamilyOf("Review")
	FamilyPlacements       = FamilyOf("Placement")
	FamilyTours            = FamilyOf("Tour")
	FamilyFAQs             = FamilyOf("FAQ")
	FamilySubscriptions    = FamilyOf("Subscription")
	FamilyPayments         = FamilyOf("Payment")
	FamilyBlogs            = FamilyOf("Blog")
)

// Record statuses used by the status-transition endpoints.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDeclined = "declined"
	StatusActive   = "active"
	StatusCanceled = "canceled"
)

// Facility is a senior-care facility listing.
type Facility struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Status    string    `json:"status"`
	Price     float64   `json:"price"`
	Rating    float64   `json:"rating"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PendingListing is a facility awaiting approval. Approving it moves the
// record into the facilities collection.
type PendingListing struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	SubmittedBy string    `json:"submittedBy"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Customer is an end user looking for placements.
type Customer struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ServiceProvider operates one or more facilities.
type ServiceProvider struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Facilities int       `json:"facilities"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Review is customer feedback on a facility.
type Review struct {
	ID         string    `json:"_id"`
	FacilityID string    `json:"facilityId"`
	CustomerID string    `json:"customerId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Placement records a customer moving into a facility.
type Placement struct {
	ID         string    `json:"_id"`
	FacilityID string    `json:"facilityId"`
	CustomerID string    `json:"customerId"`
	Status     string    `json:"status"`
	StartDate  time.Time `json:"startDate"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Tour is a scheduled facility visit.
type Tour struct {
	ID          string    `json:"_id"`
	FacilityID  string    `json:"facilityId"`
	CustomerID  string    `json:"customerId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Status      string    `json:"status"`
}

// FAQ is a frequently asked question shown on the public site.
type FAQ struct {
	ID       string `json:"_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int    `json:"order"`
}

// Subscription is a provider's paid plan.
type Subscription struct {
	ID         string    `json:"_id"`
	ProviderID string    `json:"providerId"`
	Plan       string    `json:"plan"`
	Status     string    `json:"status"`
	RenewsAt   time.Time `json:"renewsAt"`
}

// Payment is one processed charge.
type Payment struct {
	ID         string    `json:"_id"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CustomerID string    `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Blog is an editorial post.
type Blog struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}
