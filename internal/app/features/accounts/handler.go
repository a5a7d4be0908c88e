// Package accounts implements registration, login, and logout. It is a thin
// collaborator around the tree: its one structural duty is provisioning the
// owner's root folder at registration.
package accounts

import (
	"errors"
	"net/http"

	"github.com/teachdrive/teachdrive/internal/app/features/drive"
	userstore "github.com/teachdrive/teachdrive/internal/app/store/users"
	"github.com/teachdrive/teachdrive/internal/app/system/auth"
	"github.com/teachdrive/teachdrive/internal/app/system/authutil"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/inputval"
	"github.com/teachdrive/teachdrive/internal/app/system/jsonutil"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler provides account handlers.
type Handler struct {
	users      *userstore.Store
	drive      *drive.Service
	sessionMgr *auth.SessionManager
	logger     *zap.Logger
}

// NewHandler creates a new accounts Handler.
func NewHandler(db *mongo.Database, driveSvc *drive.Service, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		users:      userstore.New(db),
		drive:      driveSvc,
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

type userResponse struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FolderSegment string `json:"folderSegment"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:            u.ID.Hex(),
		Username:      u.Username,
		Email:         u.Email,
		FolderSegment: u.FolderSegment,
	}
}

type registerInput struct {
	Username string `json:"username" validate:"required,entryname" label:"Username"`
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// RegisterHandler handles POST /register: creates the account, provisions
// the root folder, and signs the new user in.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var in registerInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}
	if err := authutil.ValidatePassword(in.Password); err != nil {
		jsonutil.BadRequest(w, err.Error()+" "+authutil.PasswordRules())
		return
	}

	hash, err := authutil.HashPassword(in.Password)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	u, err := h.users.Create(r.Context(), userstore.CreateInput{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		jsonutil.Conflict(w, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("user creation failed", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	owner := authz.Owner{
		ID:            u.ID,
		Username:      u.Username,
		FolderSegment: u.FolderSegment,
	}
	if _, err := h.drive.ProvisionRoot(r.Context(), owner); err != nil {
		// An account without a root is unusable; undo the insert so the
		// email can register again.
		h.logger.Error("root provisioning failed, rolling back registration",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		if _, delErr := h.users.Delete(r.Context(), u.ID); delErr != nil {
			h.logger.Error("registration rollback failed",
				zap.String("user_id", u.ID.Hex()),
				zap.Error(delErr))
		}
		jsonutil.InternalError(w, "internal error")
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		h.logger.Error("session creation failed after registration",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	h.logger.Info("account registered",
		zap.String("user_id", u.ID.Hex()),
		zap.String("segment", u.FolderSegment))
	jsonutil.Created(w, toUserResponse(u))
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

// LoginHandler handles POST /login. Unknown email and wrong password get the
// same response.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}

	u, err := h.users.GetByEmail(r.Context(), in.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Unauthorized(w, "invalid email or password")
		return
	}
	if err != nil {
		h.logger.Error("user lookup failed", zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}
	if !authutil.CheckPassword(in.Password, u.PasswordHash) {
		jsonutil.Unauthorized(w, "invalid email or password")
		return
	}

	if err := h.startSession(w, r, u); err != nil {
		h.logger.Error("session creation failed",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
		return
	}

	h.logger.Info("user logged in", zap.String("user_id", u.ID.Hex()))
	jsonutil.OK(w, toUserResponse(u))
}

// LogoutHandler handles POST /logout.
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.sessionMgr.DestroySession(w, r)
	jsonutil.NoContent(w)
}

// MeHandler handles GET /me: the signed-in user's own account.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	jsonutil.OK(w, userResponse{
		ID:            su.ID,
		Username:      su.Username,
		Email:         su.Email,
		FolderSegment: su.FolderSegment,
	})
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, u *models.User) error {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return err
	}
	return h.sessionMgr.CreateSession(w, r, u.ID, token)
}
