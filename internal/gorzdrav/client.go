package gorzdrav

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dstepanov-dev/medslot/pkg/logging"
)

const (
	defaultTimeout = 30 * time.Second

	pathDistricts         = "/_api/api/v2/shared/districts"
	pathFacilities        = "/_api/api/v2/shared/lpus"
	pathDistrictLPUs      = "/_api/api/v2/shared/district/%d/lpus"
	pathSpecialties       = "/_api/api/v2/schedule/lpu/%d/specialties"
	pathDoctors           = "/_api/api/v2/schedule/lpu/%d/speciality/%s/doctors"
	pathSlots             = "/_api/api/v2/schedule/lpu/%d/doctor/%s/appointments"
	pathPatientSearch     = "/_api/api/v2/patient/search"
	pathAppointmentCreate = "/_api/api/v2/appointment/create"
)

// Client is a typed HTTP client for the Gorzdrav scheduling API. All
// responses share the {success, errorCode, message, result} envelope;
// success=false decodes into *APIError.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a scheduling API client.
func NewClient(baseURL, token string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// WithTimeout overrides the HTTP client timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.httpClient.Timeout = d
	}
	return c
}

// ListDistricts returns all city districts.
func (c *Client) ListDistricts(ctx context.Context) ([]District, error) {
	return get[[]District](ctx, c, pathDistricts, nil)
}

// ListFacilities returns all facilities known to the provider.
func (c *Client) ListFacilities(ctx context.Context) ([]Facility, error) {
	return get[[]Facility](ctx, c, pathFacilities, nil)
}

// ListFacilitiesByDistrict returns facilities in one district.
func (c *Client) ListFacilitiesByDistrict(ctx context.Context, districtID int) ([]Facility, error) {
	return get[[]Facility](ctx, c, fmt.Sprintf(pathDistrictLPUs, districtID), nil)
}

// ListSpecialties returns the specialties taking appointments at a facility.
func (c *Client) ListSpecialties(ctx context.Context, lpuID int) ([]Specialty, error) {
	payloads, err := get[[]specialtyPayload](ctx, c, fmt.Sprintf(pathSpecialties, lpuID), nil)
	if err != nil {
		return nil, err
	}
	specialties := make([]Specialty, 0, len(payloads))
	for _, p := range payloads {
		specialties = append(specialties, p.toSpecialty())
	}
	return specialties, nil
}

// ListDoctors returns doctors under a specialty at a facility, in provider
// order (nearest availability first).
func (c *Client) ListDoctors(ctx context.Context, lpuID int, specialistID string) ([]Doctor, error) {
	payloads, err := get[[]doctorPayload](ctx, c, fmt.Sprintf(pathDoctors, lpuID, url.PathEscape(specialistID)), nil)
	if err != nil {
		return nil, err
	}
	doctors := make([]Doctor, 0, len(payloads))
	for _, p := range payloads {
		doctors = append(doctors, p.toDoctor())
	}
	return doctors, nil
}

// ListSlots returns a doctor's open slots in provider order. A provider
// response with ErrCodeNoSlots is returned as *APIError; use IsNoSlots.
func (c *Client) ListSlots(ctx context.Context, lpuID int, doctorID string) ([]Slot, error) {
	payloads, err := get[[]slotPayload](ctx, c, fmt.Sprintf(pathSlots, lpuID, url.PathEscape(doctorID)), nil)
	if err != nil {
		return nil, err
	}
	slots := make([]Slot, 0, len(payloads))
	for _, p := range payloads {
		slots = append(slots, p.toSlot())
	}
	return slots, nil
}

// SearchPatient resolves the provider-side patient id from demographics.
func (c *Client) SearchPatient(ctx context.Context, req PatientSearchRequest) (string, error) {
	params := url.Values{}
	params.Set("lpuId", fmt.Sprintf("%d", req.LpuID))
	params.Set("lastName", req.LastName)
	params.Set("firstName", req.FirstName)
	params.Set("middleName", req.MiddleName)
	params.Set("birthdate", req.BirthDate.Format("2006-01-02"))
	return get[string](ctx, c, pathPatientSearch, params)
}

// ReserveSlot books one concrete slot for a patient. The provider enforces
// slot uniqueness: a slot taken by a concurrent caller fails here.
func (c *Client) ReserveSlot(ctx context.Context, req CreateAppointmentRequest) error {
	c.logger.Info("gorzdrav: reserving slot",
		"lpu_id", req.LpuID, "appointment_id", req.AppointmentID)
	_, err := post[json.RawMessage](ctx, c, pathAppointmentCreate, req)
	return err
}

func get[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	return do[T](ctx, c, http.MethodGet, path, params, nil)
}

func post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return do[T](ctx, c, http.MethodPost, path, nil, body)
}

func do[T any](ctx context.Context, c *Client, method, path string, params url.Values, body any) (T, error) {
	var zero T

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("gorzdrav: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return zero, fmt.Errorf("gorzdrav: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("gorzdrav: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("gorzdrav: read response: %w", err)
	}

	var env envelope[T]
	if err := json.Unmarshal(respBody, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			msg := string(respBody)
			if len(msg) > 300 {
				msg = msg[:300]
			}
			return zero, fmt.Errorf("gorzdrav: status %d: %s", resp.StatusCode, msg)
		}
		return zero, fmt.Errorf("gorzdrav: unmarshal response: %w", err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return zero, &APIError{Code: env.ErrorCode, Message: msg}
	}

	return env.Result, nil
}
