package domain

// Product is a transient catalog item mapped from a listing response.
// It is never persisted as-is: the seen set and delivery records key on
// URL, and Name/Price are snapshotted into Delivery rows.
type Product struct {
	Code     string  `json:"code"`
	URL      string  `json:"url"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url,omitempty"`
}

// EventKind distinguishes the two notification shapes.
type EventKind string

const (
	// EventNewProduct announces a product seen for the first time.
	EventNewProduct EventKind = "new_product"
	// EventDelivery announces a first-time deliverable (product, pincode) pair.
	EventDelivery EventKind = "delivery"
)

// Event is a single pending notification produced by a check run and
// consumed by the notifier while the run is still in flight.
type Event struct {
	Kind    EventKind
	UserID  int64
	Product Product
	Pincode string
}
