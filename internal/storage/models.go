package storage

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Classification is the FDA recall severity class.
type Classification string

const (
	ClassI   Classification = "Class I"
	ClassII  Classification = "Class II"
	ClassIII Classification = "Class III"
)

// Severity maps a classification onto a human severity label.
func (c Classification) Severity() string {
	switch c {
	case ClassI:
		return "critical"
	case ClassII:
		return "high"
	case ClassIII:
		return "moderate"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the known classes.
func (c Classification) Valid() bool {
	return c == ClassI || c == ClassII || c == ClassIII
}

// Food represents a food item.
type Food struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	CommonNames StringList `json:"common_names"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Barcode     string     `json:"barcode,omitempty"`
	CategoryID  *int       `json:"category_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Recall represents an FDA food enforcement report.
type Recall struct {
	ID                  uuid.UUID      `json:"id"`
	RecallNumber        string         `json:"recall_number"`
	ProductDescription  string         `json:"product_description"`
	ReasonForRecall     string         `json:"reason_for_recall"`
	Classification      Classification `json:"classification"`
	CompanyName         string         `json:"company_name"`
	Status              string         `json:"status"`
	City                string         `json:"city,omitempty"`
	State               string         `json:"state,omitempty"`
	Country             string         `json:"country,omitempty"`
	DistributionPattern string         `json:"distribution_pattern,omitempty"`
	ProductQuantity     string         `json:"product_quantity,omitempty"`
	EventID             string         `json:"event_id,omitempty"`
	RecallDate          *time.Time     `json:"recall_date,omitempty"`
	ReportDate          *time.Time     `json:"report_date,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Advisory represents a state fish consumption advisory.
type Advisory struct {
	ID               uuid.UUID  `json:"id"`
	StateCode        string     `json:"state_code"`
	StateName        string     `json:"state_name"`
	WaterbodyName    string     `json:"waterbody_name"`
	FishSpecies      string     `json:"fish_species"`
	ContaminantType  string     `json:"contaminant_type"`
	AdvisoryText     string     `json:"advisory_text"`
	ConsumptionLimit string     `json:"consumption_limit"`
	AdvisoryLevel    string     `json:"advisory_level"`
	EffectiveDate    *time.Time `json:"effective_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// User represents a registered account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name,omitempty"`
	IsActive       bool      `json:"is_active"`
	IsVerified     bool      `json:"is_verified"`
	CreatedAt      time.Time `json:"created_at"`
}

// Category groups foods. Top-level categories have no parent.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	ParentID    *int      `json:"parent_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SavedFood is a food bookmarked by a user.
type SavedFood struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user_id"`
	FoodID  uuid.UUID `json:"food_id"`
	Notes   string    `json:"notes"`
	SavedAt time.Time `json:"saved_at"`
	Food    *Food     `json:"food,omitempty"`
}

// MealPlan is a user's named plan of foods for a day or meal.
type MealPlan struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date,omitempty"`
	MealType    string          `json:"meal_type,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
	Foods       []*MealPlanFood `json:"foods"`
}

// MealPlanFood is one food entry in a meal plan.
type MealPlanFood struct {
	ID          uuid.UUID `json:"id"`
	MealPlanID  uuid.UUID `json:"meal_plan_id"`
	FoodID      uuid.UUID `json:"food_id"`
	ServingSize string    `json:"serving_size,omitempty"`
	Servings    float64   `json:"servings"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Food        *Food     `json:"food,omitempty"`
}

// StringList is a string slice stored as a JSON array in a text column.
type StringList []string

// Value implements driver.Valuer.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan StringList: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*s = nil
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(s))
}
