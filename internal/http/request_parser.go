package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"tresorier/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// parseID reads the id query parameter required by get and delete routes.
func parseID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		return 0, &core.ValidationError{Field: "id", Reason: "id is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, &core.ValidationError{Field: "id", Reason: "id must be a positive integer"}
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON body: %v", err)}
	}
	return nil
}

func queryInt64(r *http.Request, keys ...string) (*int64, error) {
	for _, key := range keys {
		raw := strings.TrimSpace(r.URL.Query().Get(key))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, &core.ValidationError{Field: key, Reason: "must be an integer"}
		}
		return &v, nil
	}
	return nil, nil
}

func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	switch raw {
	case "true", "1":
		v := true
		return &v, nil
	case "false", "0":
		v := false
		return &v, nil
	}
	return nil, &core.ValidationError{Field: key, Reason: "must be true or false"}
}

func queryDate(r *http.Request, key string) (core.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, &core.ValidationError{Field: key, Reason: "must be a YYYY-MM-DD date"}
	}
	return d, nil
}

func queryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, &core.ValidationError{Field: key, Reason: "must be a decimal number"}
	}
	return &v, nil
}

// operationFilterFromQuery maps the operation list parameters, accepting the
// legacy aliases of the id filters.
func operationFilterFromQuery(r *http.Request) (core.OperationFilter, error) {
	var filter core.OperationFilter
	var err error

	if filter.FiscalYearID, err = queryInt64(r, "fiscal_year_id", "fiscalyear_id"); err != nil {
		return filter, err
	}
	if filter.AccountID, err = queryInt64(r, "account_id", "accounting_account_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryInt64(r, "category", "accounting_operations_category"); err != nil {
		return filter, err
	}
	if filter.Checked, err = queryBool(r, "checked"); err != nil {
		return filter, err
	}
	year, err := queryInt64(r, "year")
	if err != nil {
		return filter, err
	}
	if year != nil {
		y := int(*year)
		filter.Year = &y
	}
	if filter.DateStart, err = queryDate(r, "date_start"); err != nil {
		return filter, err
	}
	if filter.DateEnd, err = queryDate(r, "date_end"); err != nil {
		return filter, err
	}
	if filter.AmountMin, err = queryDecimal(r, "amount_min"); err != nil {
		return filter, err
	}
	if filter.AmountMax, err = queryDecimal(r, "amount_max"); err != nil {
		return filter, err
	}

	return filter, nil
}

func membershipFilterFromQuery(r *http.Request) (core.MembershipFilter, error) {
	var filter core.MembershipFilter
	var err error

	if filter.FiscalYearID, err = queryInt64(r, "fiscal_year_id", "fiscalyear_id"); err != nil {
		return filter, err
	}
	if filter.PersonID, err = queryInt64(r, "member_id"); err != nil {
		return filter, err
	}
	filter.SortByDate = r.URL.Query().Get("sort") == "date"

	return filter, nil
}

func memberFilterFromQuery(r *http.Request) (core.MemberFilter, error) {
	var filter core.MemberFilter
	var err error

	if filter.FiscalYearID, err = queryInt64(r, "fiscal_year_id", "fiscalyear_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

func yearOrderFromQuery(r *http.Request) (core.YearOrder, error) {
	switch r.URL.Query().Get("order") {
	case "":
		return core.YearOrderNone, nil
	case "asc":
		return core.YearOrderAsc, nil
	case "desc":
		return core.YearOrderDesc, nil
	}
	return core.YearOrderNone, &core.ValidationError{Field: "order", Reason: "must be asc or desc"}
}

// membershipPayload is the composite membership save body. Lines arrive
// under the legacy "cotisations" key; a line may name its cotisation as
// cotisation_id or id.
type membershipPayload struct {
	ID             int64               `json:"id"`
	PersonID       int64               `json:"person_id"`
	Lastname       string              `json:"lastname"`
	Firstname      string              `json:"firstname"`
	Gender         core.Gender         `json:"gender"`
	Birthdate      core.Date           `json:"birthdate"`
	Address        string              `json:"address"`
	Zipcode        *int                `json:"zipcode"`
	City           string              `json:"city"`
	Email          string              `json:"email"`
	PhoneNumber    string              `json:"phonenumber"`
	PhoneNumber2   string              `json:"phonenumber2"`
	ImageRights    bool                `json:"image_rights"`
	MembershipDate core.Date           `json:"membership_date"`
	MembershipType core.MembershipType `json:"membership_type"`
	FiscalYearID   int64               `json:"fiscal_year_id"`
	Comments       string              `json:"comments"`
	Cotisations    []linePayload       `json:"cotisations"`
}

type linePayload struct {
	CotisationID  int64               `json:"cotisation_id"`
	LegacyID      int64               `json:"id"`
	Date          core.Date           `json:"date"`
	Amount        decimal.Decimal     `json:"amount"`
	PaymentMethod *core.PaymentMethod `json:"payment_method"`
	Checked       *bool               `json:"checked"`
}

func (p membershipPayload) toInput() *core.MembershipInput {
	in := &core.MembershipInput{
		ID:             p.ID,
		PersonID:       p.PersonID,
		Lastname:       p.Lastname,
		Firstname:      p.Firstname,
		Gender:         p.Gender,
		Birthdate:      p.Birthdate,
		Address:        p.Address,
		Zipcode:        p.Zipcode,
		City:           p.City,
		Email:          p.Email,
		PhoneNumber:    p.PhoneNumber,
		PhoneNumber2:   p.PhoneNumber2,
		ImageRights:    p.ImageRights,
		MembershipDate: p.MembershipDate,
		MembershipType: p.MembershipType,
		FiscalYearID:   p.FiscalYearID,
		Comments:       p.Comments,
	}
	for _, line := range p.Cotisations {
		cotID := line.CotisationID
		if cotID == 0 {
			cotID = line.LegacyID
		}
		in.Lines = append(in.Lines, core.LineInput{
			CotisationID:  cotID,
			Date:          line.Date,
			Amount:        line.Amount,
			PaymentMethod: line.PaymentMethod,
			Checked:       line.Checked,
		})
	}
	return in
}
