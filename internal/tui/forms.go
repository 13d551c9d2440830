package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"lifeos/internal/apperrors"
	"lifeos/internal/service"
)

type formKind int

const (
	formAuth formKind = iota
	formTask
	formHabit
	formPassword
)

const (
	modeSignIn   = "signin"
	modeRegister = "register"
)

// formValues backs the fields of whichever form is open.
type formValues struct {
	mode     string
	name     string
	email    string
	password string
	next     string
	again    string
	title    string
	priority string
	notes    string
	due      *service.Timestamp

	// id is the edit target. Zero creates.
	id int
}

type activeForm struct {
	kind   formKind
	form   *huh.Form
	values *formValues
}

// inline adapts a validator so the form shows only the reason.
func inline(fn func(string) error) func(string) error {
	return func(s string) error {
		if err := fn(s); err != nil {
			return errors.New(apperrors.Message(err))
		}
		return nil
	}
}

func required(reason string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(reason)
		}
		return nil
	}
}

func newForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).
		WithTheme(huh.ThemeDracula()).
		WithShowHelp(true).
		WithWidth(60)
}

func authForm(v *formValues) *huh.Form {
	if v.mode == "" {
		v.mode = modeSignIn
	}
	return newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("LifeOS").
				Options(
					huh.NewOption("Sign in", modeSignIn),
					huh.NewOption("Create an account", modeRegister),
				).
				Value(&v.mode),
		),
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.name).Validate(required("name required")),
		).WithHideFunc(func() bool { return v.mode != modeRegister }),
		huh.NewGroup(
			huh.NewInput().Title("Email").Value(&v.email).Validate(inline(service.ValidateEmail)),
			huh.NewInput().Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&v.password).
				Validate(func(s string) error {
					if v.mode == modeRegister {
						return inline(service.ValidatePassword)(s)
					}
					return required("password required")(s)
				}),
		),
	)
}

func taskForm(v *formValues) *huh.Form {
	if v.priority == "" {
		v.priority = service.PriorityMedium
	}
	title := "New task"
	if v.id != 0 {
		title = "Edit task"
	}
	return newForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Placeholder("What needs doing?").
				Value(&v.title).Validate(required("title required")),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("High", service.PriorityHigh),
					huh.NewOption("Medium", service.PriorityMedium),
					huh.NewOption("Low", service.PriorityLow),
				).
				Value(&v.priority),
			huh.NewInput().Title("Notes").Value(&v.notes),
		),
	)
}

func habitForm(v *formValues) *huh.Form {
	title := "New habit"
	if v.id != 0 {
		title = "Rename habit"
	}
	return newForm(
		huh.NewGroup(
			huh.NewInput().Title(title).Placeholder("e.g. Read 20 pages").
				Value(&v.name).Validate(required("habit name required")),
		),
	)
}

func passwordForm(v *formValues) *huh.Form {
	return newForm(
		huh.NewGroup(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).
				Value(&v.password).Validate(required("current password required")),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).
				Value(&v.next).Validate(inline(service.ValidatePassword)),
			huh.NewInput().Title("Repeat new password").EchoMode(huh.EchoModePassword).
				Value(&v.again).
				Validate(func(s string) error {
					if s != v.next {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		),
	)
}

// taskInput builds the payload from the task form.
func (v *formValues) taskInput() service.TaskInput {
	in := service.TaskInput{
		Title:    strings.TrimSpace(v.title),
		Priority: service.NormalizePriority(v.priority),
		DueDate:  v.due,
	}
	if notes := strings.TrimSpace(v.notes); notes != "" {
		in.Description = &notes
	}
	return in
}
