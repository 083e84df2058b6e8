package forms

import (
	"errors"
	"testing"

	"github.com/robby/pmdash/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createValidProjectValues() Values {
	return Values{
		FieldName:        "Website Redesign",
		FieldClientID:    "c1",
		FieldStatus:      "active",
		FieldDescription: "",
		FieldStartDate:   "2024-03-01",
		FieldEndDate:     "2024-06-30",
	}
}

func validationErrors(t *testing.T, err error) Errors {
	t.Helper()
	var errs Errors
	require.True(t, errors.As(err, &errs), "expected forms.Errors, got %v", err)
	return errs
}

func TestNewProjectSchema_Valid(t *testing.T) {
	assert.NoError(t, NewProjectSchema().Validate(createValidProjectValues()))
}

// TestNewProjectSchema_ReportsEveryField verifies all rules run, not just the first
func TestNewProjectSchema_ReportsEveryField(t *testing.T) {
	values := Values{
		FieldName:      "  ",
		FieldClientID:  "",
		FieldStatus:    "planning",
		FieldStartDate: "03/01/2024",
		FieldEndDate:   "",
	}

	errs := validationErrors(t, NewProjectSchema().Validate(values))

	assert.NotEmpty(t, errs.Field(FieldName))
	assert.NotEmpty(t, errs.Field(FieldClientID))
	assert.NotEmpty(t, errs.Field(FieldStatus))
	assert.NotEmpty(t, errs.Field(FieldStartDate))
	assert.Empty(t, errs.Field(FieldEndDate))
	assert.Empty(t, errs.Field(FieldDescription))

	require.Len(t, errs.Field(FieldName), 1)
	assert.Equal(t, "Validation.project_name_required", errs.Field(FieldName)[0].Key)
	assert.Equal(t, "Validation.date_invalid", errs.Field(FieldStartDate)[0].Key)
}

func TestNewProjectSchema_EndBeforeStart(t *testing.T) {
	values := createValidProjectValues()
	values[FieldEndDate] = "2024-01-01"

	errs := validationErrors(t, NewProjectSchema().Validate(values))

	require.Len(t, errs, 1)
	assert.Equal(t, FieldEndDate, errs[0].Field)
	assert.Equal(t, "Validation.end_before_start", errs[0].Key)
}

// TestNewProjectSchema_StatusParams verifies the offered statuses reach the message
func TestNewProjectSchema_StatusParams(t *testing.T) {
	values := createValidProjectValues()
	values[FieldStatus] = "planning"

	errs := validationErrors(t, NewProjectSchema().Validate(values))

	require.Len(t, errs, 1)
	assert.Equal(t, "Validation.status_invalid", errs[0].Key)
	assert.Equal(t, map[string]any{"options": "active, completed, on_hold, cancelled"}, errs[0].Params)
}

func TestProjectStatusOptions_MatchTag(t *testing.T) {
	for _, status := range ProjectStatusOptions {
		values := createValidProjectValues()
		values[FieldStatus] = status
		assert.NoError(t, NewProjectSchema().Validate(values), status)
	}
}

func TestNewProjectSchema_SameDayAllowed(t *testing.T) {
	values := createValidProjectValues()
	values[FieldEndDate] = values[FieldStartDate]

	assert.NoError(t, NewProjectSchema().Validate(values))
}

func TestNewProjectInput(t *testing.T) {
	values := createValidProjectValues()
	values[FieldDescription] = "Marketing site"

	np, err := NewProjectInput(values)
	require.NoError(t, err)

	assert.Equal(t, "Website Redesign", np.Name)
	assert.Equal(t, "c1", np.ClientID)
	assert.Equal(t, domain.StatusActive, np.Status)
	require.NotNil(t, np.Description)
	assert.Equal(t, "Marketing site", *np.Description)
	require.NotNil(t, np.StartDate)
	assert.Equal(t, "2024-03-01", np.StartDate.String())
	require.NotNil(t, np.EndDate)
	assert.Equal(t, "2024-06-30", np.EndDate.String())
}

func TestNewProjectInput_OptionalFieldsNil(t *testing.T) {
	values := Values{FieldName: "Kiosk", FieldClientID: "c2", FieldStatus: "on_hold"}

	np, err := NewProjectInput(values)
	require.NoError(t, err)

	assert.Nil(t, np.Description)
	assert.Nil(t, np.StartDate)
	assert.Nil(t, np.EndDate)
}

func TestNewProjectInput_Invalid(t *testing.T) {
	_, err := NewProjectInput(Values{})

	errs := validationErrors(t, err)
	assert.NotEmpty(t, errs.Field(FieldName))
}

func TestSignInSchema(t *testing.T) {
	tests := []struct {
		name    string
		values  Values
		invalid []string
	}{
		{"valid", Values{FieldEmail: "ana@example.com", FieldPassword: "x"}, nil},
		{"bad email", Values{FieldEmail: "ana@", FieldPassword: "x"}, []string{FieldEmail}},
		{"no tld", Values{FieldEmail: "ana@example", FieldPassword: "x"}, []string{FieldEmail}},
		{"display name", Values{FieldEmail: "Ana <ana@example.com>", FieldPassword: "x"}, []string{FieldEmail}},
		{"missing both", Values{}, []string{FieldEmail, FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SignInSchema().Validate(tt.values)
			if tt.invalid == nil {
				assert.NoError(t, err)
				return
			}
			errs := validationErrors(t, err)
			assert.Len(t, errs, len(tt.invalid))
			for _, f := range tt.invalid {
				assert.NotEmpty(t, errs.Field(f), f)
			}
		})
	}
}

func TestSignUpSchema(t *testing.T) {
	valid := Values{
		FieldName:     "Ana",
		FieldEmail:    "ana@example.com",
		FieldPassword: "Str0ng/pass",
		FieldConfirm:  "Str0ng/pass",
	}
	assert.NoError(t, SignUpSchema().Validate(valid))

	tests := []struct {
		name  string
		field string
		value string
		fails string
	}{
		{"short name", FieldName, "A", FieldName},
		{"too short", FieldPassword, "S0/a", FieldPassword},
		{"no upper", FieldPassword, "str0ng/pass", FieldPassword},
		{"no lower", FieldPassword, "STR0NG/PASS", FieldPassword},
		{"no digit", FieldPassword, "Strong/pass", FieldPassword},
		{"no special", FieldPassword, "Str0ngpass", FieldPassword},
		{"confirm mismatch", FieldConfirm, "Str0ng/pas", FieldConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := Values{}
			for k, v := range valid {
				values[k] = v
			}
			values[tt.field] = tt.value
			if tt.field == FieldPassword {
				values[FieldConfirm] = tt.value
			}

			errs := validationErrors(t, SignUpSchema().Validate(values))
			assert.NotEmpty(t, errs.Field(tt.fails))
		})
	}
}

func TestSignUpSchema_Params(t *testing.T) {
	values := Values{FieldName: "A", FieldEmail: "ana@example.com", FieldPassword: "weak", FieldConfirm: "weak"}

	errs := validationErrors(t, SignUpSchema().Validate(values))

	require.Len(t, errs, 2)
	assert.Equal(t, FieldError{Field: FieldName, Key: "Validation.name_too_short", Params: map[string]any{"min": 2}}, errs[0])
	assert.Equal(t, FieldPassword, errs[1].Field)
	assert.Equal(t, "Validation.password_weak", errs[1].Key)
	assert.Equal(t, `!@#$%^&*+=-_/`, errs[1].Params["specials"])
}

// TestResetPasswordSchema_NarrowerSpecials verifies "/" is not accepted here
func TestResetPasswordSchema_NarrowerSpecials(t *testing.T) {
	values := Values{FieldPassword: "Str0ng/pass", FieldConfirm: "Str0ng/pass"}
	errs := validationErrors(t, ResetPasswordSchema().Validate(values))
	assert.NotEmpty(t, errs.Field(FieldPassword))

	values = Values{FieldPassword: "Str0ng!pass", FieldConfirm: "Str0ng!pass"}
	assert.NoError(t, ResetPasswordSchema().Validate(values))
}

func TestForgotPasswordSchema(t *testing.T) {
	assert.NoError(t, ForgotPasswordSchema().Validate(Values{FieldEmail: "ana@example.com"}))
	assert.Error(t, ForgotPasswordSchema().Validate(Values{FieldEmail: "nope"}))
}

func TestErrors_Error(t *testing.T) {
	errs := Errors{
		{Field: "name", Key: "Validation.required"},
		{Field: "pw", Key: "Validation.min", Params: map[string]any{"min": 8}},
	}

	msg := errs.Error()
	assert.Contains(t, msg, "name: Validation.required")
	assert.Contains(t, msg, "pw: Validation.min")
	assert.Len(t, errs.Field("pw"), 1)
	assert.Empty(t, errs.Field("other"))
}
