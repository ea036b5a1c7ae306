package cli

import (
	"context"
	"errors"
	"fmt"

	"coinrush-client/internal/client/services"
	"coinrush-client/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate
// testing. They point to interactive input helpers and can be swapped
// in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for an email or username plus password and
// authenticates.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, identifier, password); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", a.auth.State().User.Name)
	return nil
}

// Register runs the code-verified signup: collect the profile, have the
// server email a one-time code, then confirm it. The account exists only
// after the code is confirmed.
func (a *App) Register(ctx context.Context) error {
	var data models.RegisterData
	var err error

	if data.Name, err = getSimpleText(a.reader, "Enter full name", a.out); err != nil {
		return err
	}
	if data.Username, err = getSimpleText(a.reader, "Choose a username", a.out); err != nil {
		return err
	}
	if data.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if data.Password, err = getPassword("Choose a password", a.out); err != nil {
		return err
	}
	if data.MobileNumber, _, err = GetOptionalText(a.reader, "Mobile number", a.out); err != nil {
		return err
	}

	email, err := a.auth.SendVerificationCode(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Verification code sent to %s\n", email)

	return a.confirmCode(ctx, email)
}

// confirmCode loops until the code is accepted, the user aborts with an
// empty answer, or input fails. 'resend' asks for a fresh code.
func (a *App) confirmCode(ctx context.Context, email string) error {
	for {
		code, err := getSimpleText(a.reader, "Enter the verification code (empty to abort, 'resend' for a new one)", a.out)
		if err != nil {
			return err
		}

		switch code {
		case "":
			return errors.New("registration aborted")
		case "resend":
			if err := a.auth.ResendVerificationCode(ctx, email); err != nil {
				if errors.Is(err, services.ErrResendCooldown) {
					fmt.Fprintf(a.out, "Please wait %s before requesting another code\n", waitHint(a.auth.ResendCooldown()))
					continue
				}
				return err
			}
			fmt.Fprintln(a.out, "A new code is on its way")
		default:
			if err := a.auth.VerifyAndRegister(ctx, email, code); err != nil {
				fmt.Fprintln(a.out, "Verification failed:", friendlyError(err))
				continue
			}
			fmt.Fprintf(a.out, "Welcome, %s!\n", a.auth.State().User.Name)
			return nil
		}
	}
}

// ResetPassword completes a code-verified password reset. The code
// arrives by email; afterwards the user logs in with the new password.
func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter account email", a.out)
	if err != nil {
		return err
	}
	code, err := getSimpleText(a.reader, "Enter the reset code from your email", a.out)
	if err != nil {
		return err
	}
	newPassword, err := getPassword("Choose a new password", a.out)
	if err != nil {
		return err
	}

	if err := a.auth.ResetPassword(ctx, email, code, newPassword); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Password updated, you can log in now")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Profile fetches and prints the server-side profile.
func (a *App) Profile(ctx context.Context) error {
	user, err := a.auth.FetchProfile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Name:     %s\n", user.Name)
	fmt.Fprintf(a.out, "Username: %s\n", user.Username)
	fmt.Fprintf(a.out, "Email:    %s\n", user.Email)
	if user.MobileNumber != "" {
		fmt.Fprintf(a.out, "Mobile:   %s\n", user.MobileNumber)
	}
	if user.IsVerified {
		fmt.Fprintln(a.out, "Verified: yes")
	}
	return nil
}

// UpdateProfile collects the fields the user wants changed and submits
// them as a partial update.
func (a *App) UpdateProfile(ctx context.Context) error {
	var patch models.UserPatch

	if name, ok, err := GetOptionalText(a.reader, "New full name", a.out); err != nil {
		return err
	} else if ok {
		patch.Name = &name
	}
	if mobile, ok, err := GetOptionalText(a.reader, "New mobile number", a.out); err != nil {
		return err
	} else if ok {
		patch.MobileNumber = &mobile
	}
	if image, ok, err := GetOptionalText(a.reader, "New profile image URL", a.out); err != nil {
		return err
	} else if ok {
		patch.ProfileImage = &image
	}

	if patch.Name == nil && patch.MobileNumber == nil && patch.ProfileImage == nil {
		fmt.Fprintln(a.out, "Nothing to update")
		return nil
	}

	if err := a.auth.UpdateUser(ctx, patch); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}
