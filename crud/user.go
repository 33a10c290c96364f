package crud

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tunefeed/domain"
	"tunefeed/errs"
)

const (
	// MaxBioLength is the maximum number of characters of a user's bio.
	MaxBioLength = 500
	// MaxFavoriteGenres is the maximum number of genres on a profile.
	MaxFavoriteGenres = 20
)

// UserService manages Users. It also contains the part of the authentication system
// that handles database interactions and token creation / hashing. It's basically
// the "backend" of the auth system, with http/auth.go dealing with requests, middleware
// and cookies being the "frontend". It implements the domain.UserService interface.
type UserService struct {
	userValidator
	follows domain.FollowService
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	hmac          HMAC
	pepper        string
	emailRegex    *regexp.Regexp
	usernameRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB, pepper, hmacKey string, follows domain.FollowService) *UserService {
	return &UserService{
		userValidator: userValidator{
			hmac:          newHMAC(hmacKey),
			pepper:        pepper,
			emailRegex:    regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,16}$`),
			usernameRegex: regexp.MustCompile(`^[a-zA-Z0-9_.]{3,30}$`),
			userGorm: userGorm{
				db: db,
			},
		},
		follows: follows,
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// Search looks up users whose username or email contains the query, case-insensitively.
// Each user comes with their followers and following, and whether the viewer follows them.
func (us *UserService) Search(ctx context.Context, viewerID int, query string) ([]domain.User, error) {
	users, err := us.userValidator.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	followed, err := us.follows.FollowedSet(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	rels, err := us.follows.RelationsOf(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].IsFollowing = followed[users[i].ID]
		users[i].Followers = rels[users[i].ID].Followers
		users[i].Following = rels[users[i].ID].Following
	}
	return users, nil
}

// Authenticate checks a submitted username and password for existence and correctness.
// Both failure cases return the same error.
func (uv *userValidator) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	found, err := uv.userGorm.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errs.IsCode(err, errs.ENOTFOUND) {
			return nil, errs.Errorf(errs.EINVALID, "Invalid username or password.")
		}
		return nil, err
	}

	// Append the pepper to the submitted password, hash it, and compare the result to the
	// password hash stored in the user's database record.
	err = bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password+uv.pepper))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errs.Errorf(errs.EINVALID, "Invalid username or password.")
		}
		return nil, err
	}
	return found, nil
}

// MakeRememberToken is a helper to generate remember tokens of a predetermined byte size.
func (uv *userValidator) MakeRememberToken() (string, error) {
	return bytesToString(RememberTokenBytes)
}

// ByRemember hashes a user's remember token and passes the HASHED token on to
// userGorm.ByRemember, which will look it up in the database.
func (uv *userValidator) ByRemember(ctx context.Context, token string) (*domain.User, error) {
	user := domain.User{
		Remember: token,
	}
	if err := runUserValFns(ctx, &user, uv.rememberHmac, uv.rememberHashRequired); err != nil {
		return nil, err
	}
	return uv.userGorm.ByRemember(ctx, user.RememberHash)
}

// Create runs validations needed for creating new User database records.
// It will create a remember token if none is provided.
func (uv *userValidator) Create(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameFormat,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.passwordRequired,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberSetIfUnset,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired,
		uv.bioMaxLength,
		uv.genresNormalize,
	)
	if err != nil {
		return err
	}
	return uv.userGorm.Create(ctx, user)
}

// Update runs validations needed for updating a User record in the database.
// It will hash a remember token if it is provided (and will not return an error if it's not).
func (uv *userValidator) Update(ctx context.Context, user *domain.User) error {
	err := runUserValFns(ctx, user,
		uv.idValid,
		uv.usernameNormalize,
		uv.usernameRequired,
		uv.usernameFormat,
		uv.usernameIsAvail,
		uv.emailNormalize,
		uv.emailRequired,
		uv.emailFormat,
		uv.passwordMinLength,
		uv.passwordBcrypt,
		uv.passwordHashRequired,
		uv.rememberMinBytes,
		uv.rememberHmac,
		uv.rememberHashRequired,
		uv.bioMaxLength,
		uv.genresNormalize,
		uv.profilePictureExists,
	)
	if err != nil {
		return err
	}
	return uv.userGorm.Update(ctx, user)
}

// Search validates a search query before passing it on to userGorm.Search.
func (uv *userValidator) Search(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errs.Errorf(errs.EINVALID, `Query parameter "q" is required.`)
	}
	users, err := uv.userGorm.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errs.Errorf(errs.ENOTFOUND, "No users found matching your query.")
	}
	return users, nil
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(ctx context.Context, user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(ctx context.Context, user *domain.User) error

// idValid makes sure that a user to be updated has an ID.
func (uv *userValidator) idValid(ctx context.Context, user *domain.User) error {
	if user.ID <= 0 {
		return errs.Errorf(errs.EINVALID, "Invalid user ID.")
	}
	return nil
}

// usernameNormalize trims the username's surrounding whitespace.
func (uv *userValidator) usernameNormalize(ctx context.Context, user *domain.User) error {
	user.Username = strings.TrimSpace(user.Username)
	return nil
}

// usernameRequired makes sure that the username is not the empty string.
func (uv *userValidator) usernameRequired(ctx context.Context, user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// usernameFormat makes sure that the username only contains letters, digits, dots and underscores.
func (uv *userValidator) usernameFormat(ctx context.Context, user *domain.User) error {
	if !uv.usernameRegex.MatchString(user.Username) {
		return errs.Errorf(errs.EINVALID, "The username must be 3 to 30 letters, digits, dots or underscores.")
	}
	return nil
}

// usernameIsAvail makes sure that a provided username is not yet taken by another user.
func (uv *userValidator) usernameIsAvail(ctx context.Context, user *domain.User) error {
	existing, err := uv.userGorm.ByUsername(ctx, user.Username)
	if errs.IsCode(err, errs.ENOTFOUND) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.ID != existing.ID {
		return errs.Errorf(errs.ECONFLICT, "Username already exists.")
	}
	return nil
}

// emailFormat makes sure that a provided email address matches a predefined regex pattern.
func (uv *userValidator) emailFormat(ctx context.Context, user *domain.User) error {
	if !uv.emailRegex.MatchString(user.Email) {
		return errs.Errorf(errs.EINVALID, "The email address is invalid.")
	}
	return nil
}

// emailNormalize converts the email to all lowercase and trims its whitespaces.
func (uv *userValidator) emailNormalize(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return nil
}

// emailRequired makes sure that the email is not the empty string.
func (uv *userValidator) emailRequired(ctx context.Context, user *domain.User) error {
	if user.Email == "" {
		return errs.Errorf(errs.EINVALID, "An email address is required.")
	}
	return nil
}

// passwordBcrypt hashes a user's password with a predefined pepper.
// It bcrypts it, if the Password field is not the empty string.
// It then clears the password on the user object in memory for security reasons.
func (uv *userValidator) passwordBcrypt(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(user.Password+uv.pepper), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedBytes)
	user.Password = ""
	return nil
}

// passwordHashRequired makes sure that the user's password hash is not the empty string.
func (uv *userValidator) passwordHashRequired(ctx context.Context, user *domain.User) error {
	if user.PasswordHash == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// passwordMinLength makes sure that the user's password is at least 8 characters long.
func (uv *userValidator) passwordMinLength(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return nil
	}
	if utf8.RuneCountInString(user.Password) < 8 {
		return errs.Errorf(errs.EINVALID, "The password must have at least 8 characters.")
	}
	return nil
}

// passwordRequired makes sure that the user's password is not the empty string.
func (uv *userValidator) passwordRequired(ctx context.Context, user *domain.User) error {
	if user.Password == "" {
		return errs.Errorf(errs.EINVALID, "A password is required.")
	}
	return nil
}

// rememberHashRequired makes sure the user's remember token hash is not the empty string.
func (uv *userValidator) rememberHashRequired(ctx context.Context, user *domain.User) error {
	if user.RememberHash == "" {
		return errs.Errorf(errs.EUNAUTHORIZED, "Remember token is required.")
	}
	return nil
}

// rememberHmac creates the user's remember token hash, if a remember token has been provided.
func (uv *userValidator) rememberHmac(ctx context.Context, user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	user.RememberHash = uv.hmac.hash(user.Remember)
	return nil
}

// rememberMinBytes makes sure that the user's remember token is not too short.
func (uv *userValidator) rememberMinBytes(ctx context.Context, user *domain.User) error {
	if user.Remember == "" {
		return nil
	}
	n, err := nBytes(user.Remember)
	if err != nil {
		return err
	}
	if n < RememberTokenBytes {
		return errors.New("crud: remember token must be at least 32 bytes")
	}
	return nil
}

// rememberSetIfUnset creates the user's remember token if none is provided.
func (uv *userValidator) rememberSetIfUnset(ctx context.Context, user *domain.User) error {
	if user.Remember != "" {
		return nil
	}
	token, err := uv.MakeRememberToken()
	if err != nil {
		return err
	}
	user.Remember = token
	return nil
}

// bioMaxLength makes sure that the bio does not exceed MaxBioLength characters.
func (uv *userValidator) bioMaxLength(ctx context.Context, user *domain.User) error {
	user.Bio = strings.TrimSpace(user.Bio)
	if utf8.RuneCountInString(user.Bio) > MaxBioLength {
		return errs.Errorf(errs.EINVALID, "The bio must not have more than %d characters.", MaxBioLength)
	}
	return nil
}

// genresNormalize trims genres, drops empty ones and duplicates, and caps their number.
func (uv *userValidator) genresNormalize(ctx context.Context, user *domain.User) error {
	genres := make([]string, 0, len(user.FavoriteGenres))
	seen := make(map[string]bool)
	for _, g := range user.FavoriteGenres {
		g = strings.TrimSpace(g)
		key := strings.ToLower(g)
		if g == "" || seen[key] {
			continue
		}
		seen[key] = true
		genres = append(genres, g)
	}
	if len(genres) > MaxFavoriteGenres {
		return errs.Errorf(errs.EINVALID, "Not more than %d favorite genres allowed.", MaxFavoriteGenres)
	}
	user.FavoriteGenres = genres
	return nil
}

// profilePictureExists makes sure that a set profile picture references a stored blob.
func (uv *userValidator) profilePictureExists(ctx context.Context, user *domain.User) error {
	if user.ProfilePicture == "" {
		return nil
	}
	found, err := exists(uv.db.WithContext(ctx), &domain.Blob{}, "id = ?", user.ProfilePicture)
	if err != nil {
		return err
	}
	if !found {
		return errs.Errorf(errs.ENOTFOUND, "The profile picture does not exist.")
	}
	return nil
}

// ByID retrieves a User database record by ID, along with its playlists.
func (ug *userGorm) ByID(ctx context.Context, id int) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).
		Preload("Playlists", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Playlists.Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "User not found.")
	}
	return &user, nil
}

// ByUsername retrieves a User database record by its exact username.
func (ug *userGorm) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, notFound(err, "User not found.")
	}
	return &user, nil
}

// ByRemember retrieves a User database record by its hashed remember token.
// The checkUser middleware calls this on every request, trying to identify a user
// by matching a request cookie's remember token to a hashed remember token in the database.
func (ug *userGorm) ByRemember(ctx context.Context, rememberHash string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).Where("remember_hash = ?", rememberHash).First(&user).Error
	if err != nil {
		return nil, notFound(err, "Unauthorized access, please log in.")
	}
	return &user, nil
}

// Search retrieves users whose username or email contains the query.
func (ug *userGorm) Search(ctx context.Context, query string) ([]domain.User, error) {
	pattern := likePattern(query)
	var users []domain.User
	err := ug.db.WithContext(ctx).
		Where("LOWER(username) LIKE ?"+likeEscape+" OR LOWER(email) LIKE ?"+likeEscape, pattern, pattern).
		Order("username").
		Limit(searchLimit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Create stores the data from the User object in a new database record.
// A concurrent signup with the same username is caught by the unique index.
func (ug *userGorm) Create(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "Username already exists.")
	}
	return err
}

// Update saves changes to an existing user record in the database.
// Associations such as playlists are managed by their own services and left untouched.
func (ug *userGorm) Update(ctx context.Context, user *domain.User) error {
	err := ug.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Errorf(errs.ECONFLICT, "Username already exists.")
	}
	return err
}
