package api

import (
	"bytes"
	"encoding/json"
)

// Restaurant cuisine categories accepted by the backend.
const (
	CuisineVeg    = "Veg"
	CuisineNonVeg = "Non Veg"
	CuisineMix    = "Mix"
)

// Restaurant approval states.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusSuspended = "suspended"
)

// BankDetails as stored on the restaurant profile.
type BankDetails struct {
	BankPhoneNumber string `json:"bankPhoneNumber,omitempty"`
	BankName        string `json:"bankName,omitempty"`
	BankBranch      string `json:"bankBranch,omitempty"`
	AccountNumber   string `json:"accountNumber,omitempty"`
	AccountHolder   string `json:"accountHolder,omitempty"`
	IFSCCode        string `json:"ifscCode,omitempty"`
	CustomerID      string `json:"customerId,omitempty"`
}

// Documents holds URLs of uploaded media.
type Documents struct {
	ProfileImage string   `json:"profileImage,omitempty"`
	MessImages   []string `json:"messImages,omitempty"`
	QRCode       string   `json:"qrCode,omitempty"`
	Passbook     string   `json:"passbook,omitempty"`
	AadharCard   string   `json:"aadharCard,omitempty"`
	PanCard      string   `json:"panCard,omitempty"`
}

// RestaurantProfile is the restaurant account as returned by the backend.
type RestaurantProfile struct {
	ID             string       `json:"id,omitempty"`
	Phone          string       `json:"phone,omitempty"`
	FirstName      string       `json:"firstName,omitempty"`
	LastName       string       `json:"lastName,omitempty"`
	DateOfBirth    string       `json:"dateOfBirth,omitempty"`
	BusinessName   string       `json:"businessName,omitempty"`
	Email          string       `json:"email,omitempty"`
	Address        string       `json:"address,omitempty"`
	City           string       `json:"city,omitempty"`
	PinCode        string       `json:"pinCode,omitempty"`
	State          string       `json:"state,omitempty"`
	Category       string       `json:"category,omitempty"`
	Specialization string       `json:"specialization,omitempty"`
	FSSAINumber    string       `json:"fssaiNumber,omitempty"`
	BankDetails    *BankDetails `json:"bankDetails,omitempty"`
	Documents      *Documents   `json:"documents,omitempty"`
	Status         string       `json:"status,omitempty"`
	IsActive       bool         `json:"isActive"`
	IsApproved     bool         `json:"isApproved"`
	IsVerified     bool         `json:"isVerified"`
	IsProfile      bool         `json:"isProfile"`
	LastLogin      string       `json:"lastLogin,omitempty"`
	CreatedAt      string       `json:"createdAt,omitempty"`
}

// DisplayName prefers the business name.
func (p RestaurantProfile) DisplayName() string {
	if p.BusinessName != "" {
		return p.BusinessName
	}
	name := p.FirstName
	if p.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.LastName
	}
	if name == "" {
		return p.Phone
	}
	return name
}

// OTPResponse is returned by send-otp.
type OTPResponse struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// LoginResponse is returned by verify-otp. IsProfile false means the
// restaurant still has to complete onboarding.
type LoginResponse struct {
	Restaurant RestaurantProfile `json:"restaurant"`
	Token      string            `json:"token"`
	IsProfile  bool              `json:"isProfile"`
}

// RegisterResponse is returned by register.
type RegisterResponse struct {
	Restaurant RestaurantProfile `json:"restaurant"`
	Message    string            `json:"message"`
}

// MessageResponse carries only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// TokenResponse is returned by the token refresh endpoint.
type TokenResponse struct {
	Token string `json:"token"`
}

// MessImagesResponse is returned after gallery mutations.
type MessImagesResponse struct {
	MessImages []string `json:"messImages"`
}

// DashboardData aggregates the restaurant overview.
type DashboardData struct {
	RestaurantInfo struct {
		Name         string `json:"name"`
		BusinessName string `json:"businessName"`
		Status       string `json:"status"`
		IsActive     bool   `json:"isActive"`
		IsApproved   bool   `json:"isApproved"`
	} `json:"restaurantInfo"`
	Stats struct {
		TotalOrders    int     `json:"totalOrders"`
		TotalRevenue   float64 `json:"totalRevenue"`
		TotalCustomers int     `json:"totalCustomers"`
		AverageRating  float64 `json:"averageRating"`
	} `json:"stats"`
	RecentActivity []map[string]any `json:"recentActivity"`
}

// Stats is a free-form statistics payload.
type Stats = map[string]any

// Category is a menu section.
type Category struct {
	MongoID     string `json:"_id,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
	ItemCount   int    `json:"itemCount,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// Key returns whichever identifier the backend populated.
func (c Category) Key() string {
	return firstNonEmpty(c.ID, c.MongoID)
}

// CategoryRef is an item's category, which the backend sends either as an
// ID string or as a populated object.
type CategoryRef struct {
	ID       string
	Name     string
	expanded bool
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = CategoryRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = CategoryRef{ID: id}
		return nil
	}
	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		Name    string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = CategoryRef{ID: firstNonEmpty(obj.ID, obj.MongoID), Name: obj.Name, expanded: true}
	return nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if !r.expanded {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID   string `json:"_id,omitempty"`
		Name string `json:"name,omitempty"`
	}{r.ID, r.Name})
}

// String prefers the category name.
func (r CategoryRef) String() string {
	return firstNonEmpty(r.Name, r.ID)
}

// Item is a menu entry.
type Item struct {
	MongoID      string      `json:"_id,omitempty"`
	ID           string      `json:"id,omitempty"`
	Name         string      `json:"name"`
	Description  string      `json:"description,omitempty"`
	Category     CategoryRef `json:"category"`
	ItemCategory string      `json:"itemCategory,omitempty"`
	Price        float64     `json:"price"`
	Availability string      `json:"availability,omitempty"`
	IsDietMeal   bool        `json:"isDietMeal"`
	Calories     int         `json:"calories,omitempty"`
	Image        string      `json:"image,omitempty"`
	Restaurant   string      `json:"restaurant,omitempty"`
	IsVegetarian bool        `json:"isVegetarian"`
	TotalOrder   int         `json:"totalOrder,omitempty"`
}

func (i Item) Key() string {
	return firstNonEmpty(i.ID, i.MongoID)
}

// Offer is a discount campaign.
type Offer struct {
	MongoID              string   `json:"_id,omitempty"`
	ID                   string   `json:"id,omitempty"`
	OfferTitle           string   `json:"offerTitle"`
	OfferDescription     string   `json:"offerDescription,omitempty"`
	OfferImage           string   `json:"offerImage,omitempty"`
	DiscountType         string   `json:"discountType,omitempty"`
	DiscountValue        float64  `json:"discountValue,omitempty"`
	MinOrderValue        float64  `json:"minOrderValue,omitempty"`
	MaxDiscountAmount    float64  `json:"maxDiscountAmount,omitempty"`
	UsageLimit           int      `json:"usageLimit,omitempty"`
	UsagePerUser         int      `json:"usagePerUser,omitempty"`
	ValidFrom            string   `json:"validFrom,omitempty"`
	ValidTo              string   `json:"validTo,omitempty"`
	IsActive             bool     `json:"isActive"`
	ApplicableCategories []string `json:"applicableCategories,omitempty"`
	ApplicableItems      []string `json:"applicableItems,omitempty"`
	TermsAndConditions   string   `json:"termsAndConditions,omitempty"`
}

func (o Offer) Key() string {
	return firstNonEmpty(o.ID, o.MongoID)
}

// Discount types.
const (
	DiscountPercentage = "percentage"
	DiscountFlat       = "flat"
)

// Meal is one dish within a plan slot.
type Meal struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// Plan is a weekly meal subscription.
type Plan struct {
	MongoID        string          `json:"_id,omitempty"`
	ID             string          `json:"id,omitempty"`
	Name           string          `json:"name"`
	PricePerWeek   float64         `json:"pricePerWeek"`
	Features       []string        `json:"features,omitempty"`
	WeeklyMeals    json.RawMessage `json:"weeklyMeals,omitempty"`
	MaxSubscribers int             `json:"maxSubscribers,omitempty"`
	IsRecommended  bool            `json:"isRecommended"`
	IsPopular      bool            `json:"isPopular"`
	IsAvailable    *bool           `json:"isAvailable,omitempty"`
}

func (p Plan) Key() string {
	return firstNonEmpty(p.ID, p.MongoID)
}

// Pagination for plan listings.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalPlans   int `json:"totalPlans"`
	PlansPerPage int `json:"plansPerPage"`
}

// PlanList is the paged plans payload.
type PlanList struct {
	Plans      []Plan     `json:"plans"`
	Pagination Pagination `json:"pagination"`
}

// Review is a customer rating.
type Review struct {
	MongoID   string          `json:"_id,omitempty"`
	ID        string          `json:"id,omitempty"`
	Rating    float64         `json:"rating"`
	Comment   string          `json:"comment,omitempty"`
	Customer  json.RawMessage `json:"customer,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

func (r Review) Key() string {
	return firstNonEmpty(r.ID, r.MongoID)
}

// ReviewPage is one page of reviews.
type ReviewPage struct {
	Reviews    []Review `json:"reviews"`
	Pagination struct {
		CurrentPage int  `json:"currentPage,omitempty"`
		TotalPages  int  `json:"totalPages,omitempty"`
		HasNextPage bool `json:"hasNextPage"`
	} `json:"pagination"`
}

// CompletedOrder is an order the kitchen has finished.
type CompletedOrder struct {
	MongoID     string  `json:"_id,omitempty"`
	ID          string  `json:"id,omitempty"`
	OrderNumber string  `json:"orderNumber,omitempty"`
	Customer    string  `json:"customerName,omitempty"`
	Total       float64 `json:"totalAmount,omitempty"`
	Status      string  `json:"status,omitempty"`
	CompletedAt string  `json:"completedAt,omitempty"`
}

func (o CompletedOrder) Key() string {
	return firstNonEmpty(o.ID, o.MongoID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
