package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

const dateOfBirthLayout = "2006-01-02"

// profileField binds one string flag to a ProfileUpdate field.
type profileField struct {
	flag  string
	usage string
	value string
	set   func(u *api.ProfileUpdate, v *string)
	check func(string) error
}

func bankField(set func(b *api.BankUpdate, v *string)) func(u *api.ProfileUpdate, v *string) {
	return func(u *api.ProfileUpdate, v *string) {
		if u.Bank == nil {
			u.Bank = &api.BankUpdate{}
		}
		set(u.Bank, v)
	}
}

func checkName(v string) error {
	return validation.ValidateName(v)
}

// profileFlags is shared by auth register and profile update.
type profileFlags struct {
	fields []*profileField
	dob    string
}

func (pf *profileFlags) register(cmd *cobra.Command) {
	pf.fields = []*profileField{
		{flag: "phone", usage: "Contact phone number", set: func(u *api.ProfileUpdate, v *string) { u.PhoneNumber = v }, check: validation.ValidatePhone},
		{flag: "first-name", usage: "Owner first name", set: func(u *api.ProfileUpdate, v *string) { u.FirstName = v }, check: checkName},
		{flag: "last-name", usage: "Owner last name", set: func(u *api.ProfileUpdate, v *string) { u.LastName = v }, check: checkName},
		{flag: "business-name", usage: "Restaurant name", set: func(u *api.ProfileUpdate, v *string) { u.BusinessName = v }, check: checkName},
		{flag: "email", usage: "Contact email", set: func(u *api.ProfileUpdate, v *string) { u.Email = v }, check: validation.ValidateEmail},
		{flag: "address", usage: "Street address", set: func(u *api.ProfileUpdate, v *string) { u.Address = v }, check: validation.ValidateDescription},
		{flag: "city", usage: "City", set: func(u *api.ProfileUpdate, v *string) { u.City = v }, check: checkName},
		{flag: "pincode", usage: "6-digit pin code", set: func(u *api.ProfileUpdate, v *string) { u.PinCode = v }, check: validation.ValidatePincode},
		{flag: "state", usage: "State", set: func(u *api.ProfileUpdate, v *string) { u.State = v }, check: checkName},
		{flag: "category", usage: "Cuisine: Veg, Non Veg or Mix", set: func(u *api.ProfileUpdate, v *string) { u.Category = v }},
		{flag: "specialization", usage: "Cuisine specialization", set: func(u *api.ProfileUpdate, v *string) { u.Specialization = v }, check: checkName},
		{flag: "fssai", usage: "FSSAI licence number", set: func(u *api.ProfileUpdate, v *string) { u.FSSAINumber = v }},
		{flag: "bank-phone", usage: "Bank-registered phone number", set: bankField(func(b *api.BankUpdate, v *string) { b.PhoneNumber = v }), check: validation.ValidatePhone},
		{flag: "bank-name", usage: "Bank name", set: bankField(func(b *api.BankUpdate, v *string) { b.BankName = v }), check: checkName},
		{flag: "bank-branch", usage: "Bank branch", set: bankField(func(b *api.BankUpdate, v *string) { b.BankBranch = v }), check: checkName},
		{flag: "account-number", usage: "Bank account number", set: bankField(func(b *api.BankUpdate, v *string) { b.AccountNumber = v })},
		{flag: "account-holder", usage: "Bank account holder name", set: bankField(func(b *api.BankUpdate, v *string) { b.AccountHolder = v }), check: checkName},
		{flag: "ifsc", usage: "Bank IFSC code", set: bankField(func(b *api.BankUpdate, v *string) { b.IFSCCode = v }), check: validation.ValidateIFSC},
		{flag: "customer-id", usage: "Bank customer id", set: bankField(func(b *api.BankUpdate, v *string) { b.CustomerID = v })},
	}
	for _, f := range pf.fields {
		cmd.Flags().StringVar(&f.value, f.flag, "", f.usage)
	}
	cmd.Flags().StringVar(&pf.dob, "dob", "", "Owner date of birth (YYYY-MM-DD)")
	registerStaticCompletions(cmd, "category", []string{api.CuisineVeg, api.CuisineNonVeg, api.CuisineMix})
	flagAlias(cmd.Flags(), "business-name", "bn")
	flagAlias(cmd.Flags(), "pincode", "pin")
}

// build returns the update for every flag the user set.
func (pf *profileFlags) build(cmd *cobra.Command) (api.ProfileUpdate, error) {
	var update api.ProfileUpdate
	for _, f := range pf.fields {
		if !flagOrAliasChanged(cmd, f.flag) {
			continue
		}
		v := strings.TrimSpace(f.value)
		switch f.flag {
		case "category":
			normalized, err := normalizeEnum("category", v, []string{api.CuisineVeg, api.CuisineNonVeg, api.CuisineMix})
			if err != nil {
				return update, err
			}
			v = normalized
		case "ifsc":
			v = strings.ToUpper(v)
		}
		if f.check != nil {
			if err := f.check(v); err != nil {
				return update, err
			}
		}
		f.set(&update, &v)
	}
	if flagOrAliasChanged(cmd, "dob") {
		t, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(pf.dob))
		if err != nil {
			return update, fmt.Errorf("--dob must be a date like 1990-04-21")
		}
		update.DateOfBirth = &t
	}
	return update, nil
}

// details lists the changed flags for dry-run previews. The account number
// is masked.
func (pf *profileFlags) details(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	for _, f := range pf.fields {
		if !flagOrAliasChanged(cmd, f.flag) {
			continue
		}
		v := strings.TrimSpace(f.value)
		if f.flag == "account-number" {
			v = maskToken(v)
		}
		out[f.flag] = v
	}
	if flagOrAliasChanged(cmd, "dob") {
		out["dob"] = pf.dob
	}
	return out
}

// documentFlags are the upload flags shared by profile update and upload.
type documentFlags struct {
	profileImage string
	messImages   []string
	qrCode       string
	passbook     string
	aadhar       string
	pan          string
}

func (df *documentFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&df.profileImage, "profile-image", "", "Profile image file")
	cmd.Flags().StringSliceVar(&df.messImages, "mess-image", nil, "Dining area photo (repeatable)")
	cmd.Flags().StringVar(&df.qrCode, "qr-code", "", "Payment QR code image")
	cmd.Flags().StringVar(&df.passbook, "passbook", "", "Bank passbook scan")
	cmd.Flags().StringVar(&df.aadhar, "aadhar", "", "Aadhaar card scan")
	cmd.Flags().StringVar(&df.pan, "pan", "", "PAN card scan")
	_ = cmd.MarkFlagFilename("profile-image")
	_ = cmd.MarkFlagFilename("mess-image")
}

func openAsset(path string) (*api.FileAsset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	asset, err := api.NewFileAsset(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return &asset, nil
}

// build opens every named file. Paths are checked before any request is sent.
func (df *documentFlags) build() (api.ProfileFiles, []string, error) {
	var files api.ProfileFiles
	var names []string
	single := []struct {
		path string
		dst  **api.FileAsset
	}{
		{df.profileImage, &files.ProfileImage},
		{df.qrCode, &files.QRCode},
		{df.passbook, &files.Passbook},
		{df.aadhar, &files.AadharCard},
		{df.pan, &files.PanCard},
	}
	for _, s := range single {
		asset, err := openAsset(s.path)
		if err != nil {
			return files, nil, err
		}
		if asset != nil {
			*s.dst = asset
			names = append(names, asset.Name)
		}
	}
	for _, p := range df.messImages {
		asset, err := openAsset(p)
		if err != nil {
			return files, nil, err
		}
		if asset != nil {
			files.MessImages = append(files.MessImages, *asset)
			names = append(names, asset.Name)
		}
	}
	return files, names, nil
}

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profile",
		Aliases: []string{"pr"},
		Short:   "View and edit the restaurant profile",
	}
	cmd.AddCommand(newProfileGetCmd())
	cmd.AddCommand(newProfileUpdateCmd())
	cmd.AddCommand(newProfileUploadCmd())
	cmd.AddCommand(newProfileRemoveMessImageCmd())
	cmd.AddCommand(newProfileClearMessImagesCmd())
	cmd.AddCommand(newProfilePincodeCmd())
	return cmd
}

func newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the restaurant profile",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Profile().Get(cmd.Context(), token))
			if err != nil {
				return err
			}
			p := res.Data
			if err := s.store.UpdateUserProfile(&p); err != nil {
				slog.Debug("could not refresh stored profile", "error", err)
			}
			s.trackRoute(cmd)
			if isJSON(cmd) {
				return printJSON(cmd, p)
			}
			renderProfile(cmd, p)
			return nil
		}),
	}
}

func renderProfile(cmd *cobra.Command, p api.RestaurantProfile) {
	w := newTabWriterFromCmd(cmd)
	row := func(label, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(w, "%s:\t%s\n", label, value)
		}
	}
	row("Name", p.DisplayName())
	row("ID", p.ID)
	row("Owner", strings.TrimSpace(p.FirstName+" "+p.LastName))
	row("Phone", p.Phone)
	row("Email", p.Email)
	row("Address", strings.Trim(strings.Join([]string{p.Address, p.City, p.State, p.PinCode}, ", "), ", "))
	row("Category", p.Category)
	row("Specialization", p.Specialization)
	row("FSSAI", p.FSSAINumber)
	row("Status", p.Status)
	row("Approved", yesNo(p.IsApproved))
	row("Profile complete", yesNo(p.IsProfile))
	if b := p.BankDetails; b != nil {
		row("Bank", strings.Trim(b.BankName+" / "+b.BankBranch, " /"))
		row("Account", maskToken(b.AccountNumber))
		row("IFSC", b.IFSCCode)
	}
	if d := p.Documents; d != nil {
		row("Mess images", fmt.Sprintf("%d", len(d.MessImages)))
	}
	_ = w.Flush()
}

func newProfileUpdateCmd() *cobra.Command {
	pf := &profileFlags{}
	df := &documentFlags{}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields and optionally upload images",
		Long: strings.TrimSpace(`
Only the fields you pass are changed. When any file flag is given the update is
sent as multipart/form-data with the files attached.
`),
		Example: strings.TrimSpace(`
  mangiee profile update --email owner@example.com
  mangiee profile update --business-name "Asha's Kitchen" --profile-image ./logo.png
  mangiee profile update --bank-name HDFC --ifsc HDFC0001234 --account-number 1234567890
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			update, err := pf.build(cmd)
			if err != nil {
				return err
			}
			files, names, err := df.build()
			if err != nil {
				return err
			}
			if update.IsEmpty() && len(names) == 0 {
				return fmt.Errorf("nothing to update: pass at least one field or file flag")
			}

			ep := previewEndpoints()
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "update",
				Resource:  "profile",
				Method:    "POST",
				Path:      ep.Profile(),
				Multipart: len(names) > 0,
				Details:   pf.details(cmd),
				Files:     names,
			}); ok || err != nil {
				return err
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			var res *api.Envelope[api.RestaurantProfile]
			if len(names) > 0 {
				res, err = checked(s.client.Profile().UpdateWithMedia(cmd.Context(), update, files, token))
			} else {
				res, err = checked(s.client.Profile().Update(cmd.Context(), update, token))
			}
			if err != nil {
				return err
			}
			if err := s.store.UpdateUserProfile(&res.Data); err != nil {
				slog.Debug("could not refresh stored profile", "error", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Updated", "profile", "", res.Data.DisplayName())
			return nil
		}),
	}

	pf.register(cmd)
	df.register(cmd)
	return cmd
}

func newProfileUploadCmd() *cobra.Command {
	df := &documentFlags{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload verification documents and images",
		Example: strings.TrimSpace(`
  mangiee profile upload --aadhar ./aadhar.pdf --pan ./pan.jpg
  mangiee profile upload --mess-image a.jpg --mess-image b.jpg
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			files, names, err := df.build()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("at least one file flag is required")
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "upload",
				Resource:  "documents",
				Method:    "POST",
				Path:      previewEndpoints().UploadDocuments(),
				Multipart: true,
				Files:     names,
			}); ok || err != nil {
				return err
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Profile().UploadDocuments(cmd.Context(), files, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Uploaded", fmt.Sprintf("%d file(s)", len(names)), "", "")
			return nil
		}),
	}
	df.register(cmd)
	return cmd
}

func newProfileRemoveMessImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-mess-image <image-url>",
		Short: "Remove one dining area photo",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			imageURL := strings.TrimSpace(args[0])
			if err := validation.ValidateImageURL(imageURL); err != nil {
				return err
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "mess image",
				Method:    "DELETE",
				Path:      previewEndpoints().MessImage(imageURL),
			}); ok || err != nil {
				return err
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Profile().RemoveMessImage(cmd.Context(), imageURL, token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Removed", "mess image", "", "")
			printText(cmd, "%d image(s) remaining\n", len(res.Data.MessImages))
			return nil
		}),
	}
}

func newProfileClearMessImagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-mess-images",
		Short: "Remove every dining area photo",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "delete",
				Resource:  "mess images",
				Method:    "DELETE",
				Path:      previewEndpoints().MessImages(),
				Warnings:  []string{"all dining area photos will be removed"},
			}); ok || err != nil {
				return err
			}
			ok, err := confirmAction(cmd, confirmOptions{
				Prompt:        "Remove all mess images? (y/N): ",
				CancelMessage: "Cancelled.",
			})
			if err != nil || !ok {
				return err
			}
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Profile().ClearMessImages(cmd.Context(), token))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printAction(cmd, "Cleared", "mess images", "", "")
			return nil
		}),
	}
}

func newProfilePincodeCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "pincode <pincode>",
		Short: "Look up the city and state for a pin code",
		Long: strings.TrimSpace(`
Resolve an Indian postal pin code to its city and state. With --apply the
profile's pin code, city and state are updated to match.
`),
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			pin := strings.TrimSpace(args[0])
			if err := validation.ValidatePincode(pin); err != nil {
				return err
			}
			loc, err := newPincodeClient().Lookup(cmd.Context(), pin)
			if err != nil {
				return err
			}

			if apply {
				update := api.ProfileUpdate{PinCode: &loc.Pincode, City: &loc.City, State: &loc.State}
				if ok, err := maybeDryRun(cmd, &dryrun.Preview{
					Operation: "update",
					Resource:  "profile",
					Method:    "POST",
					Path:      previewEndpoints().Profile(),
					Details:   map[string]any{"pincode": loc.Pincode, "city": loc.City, "state": loc.State},
				}); ok || err != nil {
					return err
				}
				s, token, err := authed()
				if err != nil {
					return err
				}
				res, err := checked(s.client.Profile().Update(cmd.Context(), update, token))
				if err != nil {
					return err
				}
				if err := s.store.UpdateUserProfile(&res.Data); err != nil {
					slog.Debug("could not refresh stored profile", "error", err)
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, loc)
			}
			printText(cmd, "%s: %s, %s\n", loc.Pincode, loc.City, loc.State)
			if apply {
				printAction(cmd, "Updated", "profile address", "", "")
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the pin code, city and state to the profile")
	return cmd
}

// newPincodeClient is swapped in tests.
var newPincodeClient = api.NewPincodeClient
