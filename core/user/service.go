package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetLink   = errors.New("the password reset link is invalid or has expired")

	messages = map[string]core.Texts{
		ErrEmailExists.Error():        {core.LocaleFa: "کاربری با این ایمیل وجود دارد"},
		ErrUsernameExists.Error():     {core.LocaleFa: "کاربری با این نام کاربری وجود دارد"},
		ErrInvalidCredentials.Error(): {core.LocaleFa: "نام کاربری یا رمز عبور اشتباه است"},
		ErrAccountDeactivated.Error(): {core.LocaleFa: "حساب کاربری غیرفعال است"},
		ErrWrongPassword.Error():      {core.LocaleFa: "رمز عبور فعلی اشتباه است"},
		ErrInvalidResetLink.Error():   {core.LocaleFa: "پیوند بازنشانی رمز عبور نامعتبر یا منقضی شده است"},
	}
)

const passwordResetSubject = "Password reset / بازنشانی رمز عبور"

type (
	Repository interface {
		// CheckUsernameUniqueness returns ErrUsernameExists or ErrEmailExists when taken by a user not in excludedIDs.
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		SetLastLogin(ctx context.Context, id string, lastLogin time.Time) error
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, uname, email string, excludedIDs ...string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Authenticate(ctx context.Context, uname, pwd string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetPassword(ctx context.Context, usr User, pwd string) (User, error)
		ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error)
		Delete(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo      Repository
		mailSvc   core.EmailService
		templates *core.EmailTemplates
		tokens    tokenGenerator
		logger    core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(
	conf *core.Config,
	repo Repository,
	mailSvc core.EmailService,
	templates *core.EmailTemplates,
	logger core.Logger,
) *Service {
	return &Service{
		repo:      repo,
		mailSvc:   mailSvc,
		templates: templates,
		tokens:    newTokenGenerator(conf.SecretKey, conf.PasswordResetTimeoutDelta),
		logger:    logger,
	}
}

func (svc *Service) CheckUniqueness(ctx context.Context, uname, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, excludedIDs...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := NowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

// Authenticate checks the credentials of an active user and records the login.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "getting user")
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = NowFunc().UTC()
	if err := svc.repo.SetLastLogin(ctx, usr.ID, usr.LastLogin); err != nil {
		return User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

// Update saves the validated changes of usr.
func (svc *Service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	usr.Roles = uu.Roles
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetPassword replaces the password of usr without applying the password policy.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ChangePassword replaces the password of usr once their current password is confirmed.
func (svc *Service) ChangePassword(ctx context.Context, usr User, cp ChangePassword) (User, error) {
	if err := usr.CheckPassword(cp.CurrentPassword); err != nil {
		return User{}, core.NewValidationError(ErrWrongPassword,
			core.FieldError{Field: "current_password", Error: ErrWrongPassword.Error()})
	}
	return svc.SetPassword(ctx, usr, cp.Password)
}

// RequestPasswordReset emails a password reset link to the active user owning email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      passwordResetSubject,
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"UID":   EncodeUID(usr),
			"Token": svc.tokens.makeToken(usr),
		},
	}
	if err := msg.Render(svc.templates); err != nil {
		svc.logger.Error("rendering password reset email", err, usr)
		return
	}
	svc.mailSvc.SendMessages(msg)
}

// ResetPassword sets a new password using the uid & token of a password reset link.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) (User, error) {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return User{}, core.NewValidationError(ErrInvalidResetLink)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, core.NewValidationError(ErrInvalidResetLink)
		}
		return User{}, err
	}
	if err := svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return User{}, core.NewValidationError(ErrInvalidResetLink)
	}
	return svc.SetPassword(ctx, usr, rp.Password)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteUsersByID(ctx, ids...)
}
