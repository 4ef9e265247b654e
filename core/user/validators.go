package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/ahmadkeyhan/qrcodile/assets"
	"github.com/ahmadkeyhan/qrcodile/core"
)

var (
	allRolesTag   = "allroles"
	allRolesTexts = core.Texts{
		core.LocaleEn: "invalid roles",
		core.LocaleFa: "نقش‌ها نامعتبر هستند",
	}

	usernameOrEmailTag   = "username_or_email"
	usernameOrEmailTexts = core.Texts{
		core.LocaleEn: "one of username or email is required",
		core.LocaleFa: "وارد کردن نام کاربری یا ایمیل الزامی است",
	}

	// password policy
	pwdMinLen      = 8
	pwdMinLenTag   = "pwdminlen"
	pwdMinLenTexts = core.Texts{
		core.LocaleEn: fmt.Sprintf("password must contain at least %d characters", pwdMinLen),
		core.LocaleFa: fmt.Sprintf("رمز عبور باید حداقل %d نویسه داشته باشد", pwdMinLen),
	}

	pwdNoSpaceTag   = "pwdnospace"
	pwdNoSpaceTexts = core.Texts{
		core.LocaleEn: "password must not contain whitespace",
		core.LocaleFa: "رمز عبور نباید فاصله داشته باشد",
	}

	pwdNotAllNumTag   = "pwdnotallnum"
	pwdNotAllNumTexts = core.Texts{
		core.LocaleEn: "password cannot be entirely numeric",
		core.LocaleFa: "رمز عبور نمی‌تواند فقط عدد باشد",
	}

	pwdComplexityTag   = "pwdcplx"
	pwdComplexityTexts = core.Texts{
		core.LocaleEn: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character",
		core.LocaleFa: "رمز عبور باید حداقل یک حرف بزرگ، یک حرف کوچک، یک عدد و یک نویسه‌ی خاص داشته باشد",
	}
	specialRegex = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim       = .7
	pwdAttrSimTag   = "pwdtoosim"
	pwdAttrSimTexts = core.Texts{
		core.LocaleEn: "password cannot be similar to user attributes",
		core.LocaleFa: "رمز عبور نباید به مشخصات کاربر شبیه باشد",
	}

	pwdNoCommonTag   = "pwdnocommon"
	pwdNoCommonTexts = core.Texts{
		core.LocaleEn: "password is too common",
		core.LocaleFa: "رمز عبور بیش از حد رایج است",
	}

	commonPasswords     []string
	commonPasswordsOnce sync.Once
)

// InitValidators registers the user validators & their translations.
func InitValidators(validate *validator.Validate, uni *ut.UniversalTranslator, logger core.Logger) {
	commonPasswordsOnce.Do(func() {
		pwds, err := LoadCommonPasswords(assets.FS, assets.CommonPasswordsPath)
		if err != nil {
			logger.Error("loading common passwords", err)
		}
		commonPasswords = pwds
	})

	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, uni, allRolesTag, allRolesTexts)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{}, ChangePassword{}, ResetUserPassword{})
	core.RegisterCustomTranslation(validate, uni, usernameOrEmailTag, usernameOrEmailTexts)
	core.RegisterCustomTranslation(validate, uni, pwdMinLenTag, pwdMinLenTexts)
	core.RegisterCustomTranslation(validate, uni, pwdNoSpaceTag, pwdNoSpaceTexts)
	core.RegisterCustomTranslation(validate, uni, pwdNotAllNumTag, pwdNotAllNumTexts)
	core.RegisterCustomTranslation(validate, uni, pwdComplexityTag, pwdComplexityTexts)
	core.RegisterCustomTranslation(validate, uni, pwdAttrSimTag, pwdAttrSimTexts)
	core.RegisterCustomTranslation(validate, uni, pwdNoCommonTag, pwdNoCommonTexts)

	core.RegisterMessages(uni, messages)
}

// LoadCommonPasswords reads the gzipped, newline separated password list at path; the result is sorted.
func LoadCommonPasswords(fsys fs.FS, path string) ([]string, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening common passwords")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Wrap(err, "reading common passwords")
	}
	pwds := make([]string, 0, 128)
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		if pwd := strings.ToLower(strings.TrimSpace(scanner.Text())); pwd != "" {
			pwds = append(pwds, pwd)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scanning common passwords")
	}
	sort.Strings(pwds)
	return pwds, nil
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if RolePriority(role) == 0 {
			return false
		}
	}
	return true
}

// userStructValidation does struct level validation on the structs carrying a new password.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		validateUsernameAndEmail(usr, sl)
		validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
		}
	case ChangePassword:
		validatePassword(usr.Password, usr.usr.Name, usr.usr.Username, usr.usr.Email, sl)
	case ResetUserPassword:
		validatePassword(usr.Password, "", "", "", sl)
	}
}

// validateUsernameAndEmail checks that one of Username or Email is provided
func validateUsernameAndEmail(nu NewUser, sl validator.StructLevel) {
	if len(nu.Username) == 0 && len(nu.Email) == 0 {
		sl.ReportError(nu.Username, "username", "Username", usernameOrEmailTag, "")
		sl.ReportError(nu.Email, "email", "Email", usernameOrEmailTag, "")
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func validatePassword(pwd, name, uname, email string, sl validator.StructLevel) {
	if pwd == "" {
		return // reported by "required"
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	// - minLen: 8
	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}
	for _, char := range pwd {
		// - no whitespace
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	// - not all numeric
	if digitCount == pwdLen {
		reportErr(pwdNotAllNumTag)
		return
	}

	// - complexity: 1 upper, 1 lower, 1 digit & 1 special
	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		reportErr(pwdComplexityTag)
		return
	}

	// - no user attrs similarity
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, strings.ToLower(name)) >= pwdMaxSim ||
		getRatio(lpwd, uname) >= pwdMaxSim ||
		getRatio(lpwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
		return
	}

	// - no common passwords
	if idx := sort.SearchStrings(commonPasswords, lpwd); idx < len(commonPasswords) {
		if match := commonPasswords[idx]; lpwd == match {
			reportErr(pwdNoCommonTag)
			return
		}
	}
}
