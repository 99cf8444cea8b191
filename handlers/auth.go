package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/services"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func Signup(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" || req.Password == "" {
			http.Error(w, "Email and password are required", http.StatusBadRequest)
			return
		}

		var exists bool
		err := db.QueryRow(`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, req.Email).Scan(&exists)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("Signup error: %v", err)
			return
		}
		if exists {
			http.Error(w, "Email already registered", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		var userID int
		err = db.QueryRow(`
			INSERT INTO users (email, password, full_name, is_active, created_at)
			VALUES ($1, $2, $3, TRUE, NOW()) RETURNING id`,
			req.Email, string(hashedPassword), req.FullName,
		).Scan(&userID)
		if err != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			log.Printf("Signup insert error: %v", err)
			return
		}

		token, err := middleware.CreateAccessToken(userID, req.Email)
		if err != nil {
			http.Error(w, "Failed to create access token", http.StatusInternalServerError)
			log.Printf("Signup token error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

func Login(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))

		var userID int
		var storedHash string
		err := db.QueryRow(`SELECT id, password FROM users WHERE email = $1 AND is_active = TRUE`, req.Email).
			Scan(&userID, &storedHash)
		if err == sql.ErrNoRows {
			http.Error(w, "Incorrect email or password", http.StatusUnauthorized)
			return
		} else if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("Login error: %v", err)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.Password)) != nil {
			http.Error(w, "Incorrect email or password", http.StatusUnauthorized)
			return
		}

		token, err := middleware.CreateAccessToken(userID, req.Email)
		if err != nil {
			http.Error(w, "Failed to create access token", http.StatusInternalServerError)
			log.Printf("Login token error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: token, TokenType: "bearer"})
	}
}

// Logout just acknowledges the request. Tokens are stateless and simply
// expire; there is no server-side blacklist.
func Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Successfully logged out"})
	}
}

// ForgotPassword always answers success so the endpoint cannot be used to
// probe which emails are registered.
func ForgotPassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))

		var userID int
		err := db.QueryRow(`SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
		if err == nil {
			resetToken := uuid.NewString()
			expires := time.Now().Add(1 * time.Hour)

			_, err = db.Exec(`
				UPDATE users
				SET reset_token = $1, reset_token_expires = $2
				WHERE id = $3`,
				resetToken, expires, userID)
			if err != nil {
				log.Printf("ForgotPassword update error: %v", err)
			} else if err := services.SendPasswordResetEmail(email, resetToken); err != nil {
				log.Printf("ForgotPassword email error for user %d: %v", userID, err)
			}
		} else if err != sql.ErrNoRows {
			log.Printf("ForgotPassword lookup error: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "If an account exists with this email, a password reset email has been sent.",
		})
	}
}

func ResetPassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token       string `json:"token"`
			NewPassword string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Token == "" || req.NewPassword == "" {
			http.Error(w, "Token and new_password are required", http.StatusBadRequest)
			return
		}

		var userID int
		var expires sql.NullTime
		err := db.QueryRow(`
			SELECT id, reset_token_expires
			FROM users
			WHERE reset_token = $1`,
			req.Token).Scan(&userID, &expires)
		if err == sql.ErrNoRows {
			http.Error(w, "Invalid or expired reset token", http.StatusBadRequest)
			return
		} else if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("ResetPassword lookup error: %v", err)
			return
		}

		if !expires.Valid || expires.Time.Before(time.Now()) {
			http.Error(w, "Reset token has expired", http.StatusBadRequest)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		_, err = db.Exec(`
			UPDATE users
			SET password = $1, reset_token = NULL, reset_token_expires = NULL
			WHERE id = $2`,
			string(hashedPassword), userID)
		if err != nil {
			http.Error(w, "Failed to reset password", http.StatusInternalServerError)
			log.Printf("ResetPassword update error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Password has been reset successfully"})
	}
}
