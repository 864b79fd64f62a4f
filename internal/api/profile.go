package api

import (
	"context"
	"net/http"
	"time"
)

// BankUpdate carries bank fields as entered by the user. PhoneNumber is the
// bank-registered number and travels as bankPhoneNumber.
type BankUpdate struct {
	PhoneNumber   *string
	BankName      *string
	BankBranch    *string
	AccountNumber *string
	AccountHolder *string
	IFSCCode      *string
	CustomerID    *string
}

func (b *BankUpdate) fields() []field {
	if b == nil {
		return nil
	}
	return []field{
		{"bankName", b.BankName},
		{"bankBranch", b.BankBranch},
		{"accountNumber", b.AccountNumber},
		{"accountHolder", b.AccountHolder},
		{"ifscCode", b.IFSCCode},
		{"customerId", b.CustomerID},
		{"bankPhoneNumber", b.PhoneNumber},
	}
}

// ProfileUpdate is a partial profile. Nil fields are left untouched on the
// server and never serialized. PhoneNumber is sent as phone.
type ProfileUpdate struct {
	PhoneNumber    *string
	FirstName      *string
	LastName       *string
	DateOfBirth    *time.Time
	BusinessName   *string
	Email          *string
	Address        *string
	City           *string
	PinCode        *string
	State          *string
	Category       *string
	Specialization *string
	FSSAINumber    *string
	Bank           *BankUpdate
}

type field struct {
	key   string
	value *string
}

func (p ProfileUpdate) fields() []field {
	return []field{
		{"phone", p.PhoneNumber},
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"businessName", p.BusinessName},
		{"email", p.Email},
		{"address", p.Address},
		{"city", p.City},
		{"pinCode", p.PinCode},
		{"state", p.State},
		{"category", p.Category},
		{"specialization", p.Specialization},
		{"fssaiNumber", p.FSSAINumber},
	}
}

// payload is the JSON body. Bank fields nest under bankDetails as the
// profile document stores them.
func (p ProfileUpdate) payload() map[string]any {
	body := map[string]any{}
	for _, f := range p.fields() {
		if f.value != nil {
			body[f.key] = *f.value
		}
	}
	if p.DateOfBirth != nil {
		body["dateOfBirth"] = p.DateOfBirth.UTC().Format(time.RFC3339Nano)
	}
	bank := map[string]any{}
	for _, f := range p.Bank.fields() {
		if f.value != nil {
			bank[f.key] = *f.value
		}
	}
	if len(bank) > 0 {
		body["bankDetails"] = bank
	}
	return body
}

// IsEmpty reports whether no field is set.
func (p ProfileUpdate) IsEmpty() bool {
	return len(p.payload()) == 0
}

// ProfileFiles are the optional uploads accompanying a profile update.
type ProfileFiles struct {
	ProfileImage *FileAsset
	MessImages   []FileAsset
	QRCode       *FileAsset
	Passbook     *FileAsset
	AadharCard   *FileAsset
	PanCard      *FileAsset
}

// profileForm flattens the update into string parts. Bank fields are sent
// at top level in multipart bodies.
func profileForm(p ProfileUpdate, files ProfileFiles) *Form {
	form := NewForm()
	for _, f := range p.fields() {
		form.SetValue(f.key, f.value)
	}
	form.SetValue("dateOfBirth", p.DateOfBirth)
	for _, f := range p.Bank.fields() {
		form.SetValue(f.key, f.value)
	}

	form.AddFile("profileImage", files.ProfileImage)
	for i := range files.MessImages {
		form.AddFile("messImages", &files.MessImages[i])
	}
	form.AddFile("qrCode", files.QRCode)
	form.AddFile("passbook", files.Passbook)
	form.AddFile("aadharCard", files.AadharCard)
	form.AddFile("panCard", files.PanCard)
	return form
}

// Get fetches the signed-in restaurant's profile.
func (s ProfileService) Get(ctx context.Context, token string) (*Envelope[RestaurantProfile], error) {
	return call[RestaurantProfile](ctx, s, http.MethodGet, s.endpoints().Profile(), token, nil)
}

// Update sends a JSON partial profile.
func (s ProfileService) Update(ctx context.Context, update ProfileUpdate, token string) (*Envelope[RestaurantProfile], error) {
	return updateProfile(ctx, s, update, token)
}

func updateProfile(ctx context.Context, r Requester, update ProfileUpdate, token string) (*Envelope[RestaurantProfile], error) {
	return call[RestaurantProfile](ctx, r, http.MethodPost, r.endpoints().Profile(), token, update.payload())
}

// UpdateWithMedia sends the profile as multipart together with any files.
func (s ProfileService) UpdateWithMedia(ctx context.Context, update ProfileUpdate, files ProfileFiles, token string) (*Envelope[RestaurantProfile], error) {
	return updateProfileWithMedia(ctx, s, update, files, token)
}

func updateProfileWithMedia(ctx context.Context, r Requester, update ProfileUpdate, files ProfileFiles, token string) (*Envelope[RestaurantProfile], error) {
	return callForm[RestaurantProfile](ctx, r, http.MethodPost, r.endpoints().Profile(), token, profileForm(update, files))
}

// UploadDocuments sends only bank documents.
func (s ProfileService) UploadDocuments(ctx context.Context, files ProfileFiles, token string) (*Envelope[RestaurantProfile], error) {
	form := profileForm(ProfileUpdate{}, ProfileFiles{
		QRCode:     files.QRCode,
		Passbook:   files.Passbook,
		AadharCard: files.AadharCard,
		PanCard:    files.PanCard,
	})
	return callForm[RestaurantProfile](ctx, s, http.MethodPost, s.endpoints().UploadDocuments(), token, form)
}

// RemoveMessImage deletes one gallery image by its URL.
func (s ProfileService) RemoveMessImage(ctx context.Context, imageURL, token string) (*Envelope[MessImagesResponse], error) {
	return call[MessImagesResponse](ctx, s, http.MethodDelete, s.endpoints().MessImage(imageURL), token, nil)
}

// ClearMessImages deletes the whole gallery.
func (s ProfileService) ClearMessImages(ctx context.Context, token string) (*Envelope[MessImagesResponse], error) {
	return call[MessImagesResponse](ctx, s, http.MethodDelete, s.endpoints().MessImages(), token, nil)
}

// Get fetches the dashboard overview.
func (s DashboardService) Get(ctx context.Context, token string) (*Envelope[DashboardData], error) {
	return call[DashboardData](ctx, s, http.MethodGet, s.endpoints().Dashboard(), token, nil)
}
