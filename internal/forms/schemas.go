package forms

import (
	"fmt"

	"github.com/robby/pmdash/internal/domain"
)

// Field names shared by the forms and the TUI inputs.
const (
	FieldName        = "name"
	FieldClientID    = "client_id"
	FieldStatus      = "status"
	FieldDescription = "description"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldConfirm     = "confirm_password"
)

// ProjectStatusOptions are the statuses offered when creating a project.
// Keep in step with the oneof tag on projectInput.Status.
var ProjectStatusOptions = []string{
	string(domain.StatusActive),
	string(domain.StatusCompleted),
	string(domain.StatusOnHold),
	string(domain.StatusCancelled),
}

type projectInput struct {
	Name      string `form:"name" validate:"required"`
	ClientID  string `form:"client_id" validate:"required"`
	Status    string `form:"status" validate:"oneof=active completed on_hold cancelled"`
	StartDate string `form:"start_date" validate:"omitempty,isodate"`
	EndDate   string `form:"end_date" validate:"omitempty,isodate,notbefore=start_date"`
}

type signInInput struct {
	Email    string `form:"email" validate:"required,email,emaildomain"`
	Password string `form:"password" validate:"required"`
}

type signUpInput struct {
	Name     string `form:"name" validate:"min=2"`
	Email    string `form:"email" validate:"required,email,emaildomain"`
	Password string `form:"password" validate:"password=signup"`
	Confirm  string `form:"confirm_password" validate:"eqfield=Password"`
}

type forgotPasswordInput struct {
	Email string `form:"email" validate:"required,email,emaildomain"`
}

type resetPasswordInput struct {
	Password string `form:"password" validate:"password=reset"`
	Confirm  string `form:"confirm_password" validate:"eqfield=Password"`
}

// NewProjectSchema validates the new and edit project dialog.
func NewProjectSchema() Schema {
	return Schema{
		Name: "newProject",
		bind: func(v Values) any {
			return &projectInput{
				Name:      v.Get(FieldName),
				ClientID:  v.Get(FieldClientID),
				Status:    v.Get(FieldStatus),
				StartDate: v.Get(FieldStartDate),
				EndDate:   v.Get(FieldEndDate),
			}
		},
		keys: map[string]string{
			FieldName:                         "Validation.project_name_required",
			FieldClientID:                     "Validation.client_required",
			FieldStatus:                       "Validation.status_invalid",
			FieldStartDate:                    "Validation.date_invalid",
			FieldEndDate + "." + tagDate:      "Validation.date_invalid",
			FieldEndDate + "." + tagNotBefore: "Validation.end_before_start",
		},
	}
}

// SignInSchema validates the sign in form.
func SignInSchema() Schema {
	return Schema{
		Name: "signIn",
		bind: func(v Values) any {
			return &signInInput{Email: v.Get(FieldEmail), Password: v.Get(FieldPassword)}
		},
		keys: map[string]string{
			FieldEmail:    "Validation.email_invalid",
			FieldPassword: "Validation.password_required",
		},
	}
}

// SignUpSchema validates the sign up form.
func SignUpSchema() Schema {
	return Schema{
		Name: "signUp",
		bind: func(v Values) any {
			return &signUpInput{
				Name:     v.Get(FieldName),
				Email:    v.Get(FieldEmail),
				Password: v[FieldPassword],
				Confirm:  v[FieldConfirm],
			}
		},
		keys: map[string]string{
			FieldName:     "Validation.name_too_short",
			FieldEmail:    "Validation.email_invalid",
			FieldPassword: "Validation.password_weak",
			FieldConfirm:  "Validation.password_mismatch",
		},
	}
}

// ForgotPasswordSchema validates the recovery email form.
func ForgotPasswordSchema() Schema {
	return Schema{
		Name: "forgotPassword",
		bind: func(v Values) any {
			return &forgotPasswordInput{Email: v.Get(FieldEmail)}
		},
		keys: map[string]string{
			FieldEmail: "Validation.email_invalid",
		},
	}
}

// ResetPasswordSchema validates the new password form.
func ResetPasswordSchema() Schema {
	return Schema{
		Name: "resetPassword",
		bind: func(v Values) any {
			return &resetPasswordInput{Password: v[FieldPassword], Confirm: v[FieldConfirm]}
		},
		keys: map[string]string{
			FieldPassword: "Validation.password_weak",
			FieldConfirm:  "Validation.password_mismatch",
		},
	}
}

// NewProjectInput validates values and converts them into a domain.NewProject.
// Optional fields left empty stay nil.
func NewProjectInput(values Values) (domain.NewProject, error) {
	if err := NewProjectSchema().Validate(values); err != nil {
		return domain.NewProject{}, err
	}

	status, err := domain.ParseStatus(values.Get(FieldStatus))
	if err != nil {
		return domain.NewProject{}, fmt.Errorf("parse status: %w", err)
	}

	np := domain.NewProject{
		Name:     values.Get(FieldName),
		ClientID: values.Get(FieldClientID),
		Status:   status,
	}
	if d := values.Get(FieldDescription); d != "" {
		np.Description = &d
	}
	if np.StartDate, err = optionalDate(values.Get(FieldStartDate)); err != nil {
		return domain.NewProject{}, err
	}
	if np.EndDate, err = optionalDate(values.Get(FieldEndDate)); err != nil {
		return domain.NewProject{}, err
	}
	return np, nil
}

func optionalDate(raw string) (*domain.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
