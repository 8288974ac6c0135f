package http

import (
	"errors"
	"net/http"
	"strings"

	"expenses/internal/log"
	"expenses/internal/storage"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var req credentialsRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < 3 || len(req.Username) > 50 {
		UnprocessableEntityError("username must be 3-50 characters").Write(w)
		return
	}
	if len(req.Password) < 6 {
		UnprocessableEntityError("password must be at least 6 characters").Write(w)
		return
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		logger.ErrorContext(ctx, "Password hash failed", log.FieldError, err)
		InternalServerError("registration failed").Write(w)
		return
	}

	userID, err := s.repo.CreateUser(ctx, req.Username, hash)
	if err != nil {
		if errors.Is(err, storage.ErrUsernameTaken) {
			BadRequestError("Username exists").Write(w)
			return
		}
		logger.ErrorContext(ctx, "User creation failed", log.FieldError, err)
		InternalServerError("registration failed").Write(w)
		return
	}

	token, err := s.auth.IssueToken(userID, req.Username)
	if err != nil {
		logger.ErrorContext(ctx, "Token issue failed", log.FieldError, err)
		InternalServerError("registration failed").Write(w)
		return
	}

	logger.InfoContext(ctx, "User registered",
		log.FieldUserID, userID,
		log.FieldUsername, req.Username)

	NewJSONResponse().Status(http.StatusCreated).Body(authResponse{
		Token: token,
		User:  userResponse{ID: userID, Username: req.Username},
	}).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		MethodNotAllowedError("POST").Write(w)
		return
	}
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var req credentialsRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			UnauthorizedError("invalid credentials").Write(w)
			return
		}
		logger.ErrorContext(ctx, "User lookup failed", log.FieldError, err)
		InternalServerError("login failed").Write(w)
		return
	}

	if !s.auth.CheckPassword(user.PasswordHash, req.Password) {
		logger.WarnContext(ctx, "Login rejected", log.FieldUsername, user.Username)
		UnauthorizedError("invalid credentials").Write(w)
		return
	}

	token, err := s.auth.IssueToken(user.ID, user.Username)
	if err != nil {
		logger.ErrorContext(ctx, "Token issue failed", log.FieldError, err)
		InternalServerError("login failed").Write(w)
		return
	}

	logger.InfoContext(ctx, "User logged in",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username)

	NewJSONResponse().Body(authResponse{
		Token: token,
		User:  userResponse{ID: user.ID, Username: user.Username},
	}).Write(w)
}
