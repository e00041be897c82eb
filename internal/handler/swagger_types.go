package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// Response wraps a successful response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// CreateParcelRequest represents the create parcel request body.
type CreateParcelRequest struct {
	ID           string `json:"id" binding:"required" example:"P-1001"`
	LRNumber     string `json:"lr_number" example:"503021"`
	LRDate       string `json:"lr_date" example:"2024-03-14"`
	OrderID      string `json:"order_id" example:"ORD-77812"`
	SerialNumber string `json:"serial_number" example:"SN-0042"`
	Carrier      string `json:"carrier" example:"Safexpress"`
	Source       string `json:"source" example:"Mumbai"`
	Destination  string `json:"destination" example:"Pune"`
	Status       string `json:"status" example:"In Transit"`
}

// PODDownloadURL is the response of the POD download endpoint.
type PODDownloadURL struct {
	ParcelID    string `json:"parcel_id" example:"P-1001"`
	DownloadURL string `json:"download_url" example:"https://bucket.s3.amazonaws.com/pods/P-1001/LR_503021.pdf?X-Amz-Signature=..."`
}

// HealthStatus is the response of the health endpoints.
type HealthStatus struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"database not reachable"`
}
