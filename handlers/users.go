package handlers

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/models"
)

const maxProfileImageBytes = 5 * 1024 * 1024

func fetchUser(db *sql.DB, userID int) (models.User, error) {
	var u models.User
	var profileImage sql.NullString
	err := db.QueryRow(`
		SELECT id, email, full_name, profile_image, is_active, created_at
		FROM users
		WHERE id = $1`,
		userID).Scan(&u.ID, &u.Email, &u.FullName, &profileImage, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return u, err
	}
	if profileImage.Valid {
		u.ProfileImage = &profileImage.String
	}
	return u, nil
}

func writeProfile(w http.ResponseWriter, u models.User) {
	profile := map[string]interface{}{
		"id":                u.ID,
		"email":             u.Email,
		"full_name":         u.FullName,
		"profile_image":     u.ProfileImage,
		"profile_image_url": u.ProfileImage, // base64 data URL
		"is_active":         u.IsActive,
		"created_at":        u.CreatedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

func GetProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		u, err := fetchUser(db, userID)
		if err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			log.Printf("GetProfile error: %v", err)
			return
		}
		writeProfile(w, u)
	}
}

func UpdateProfile(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var req struct {
			FullName *string `json:"full_name"`
			Email    *string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			var taken bool
			err := db.QueryRow(`
				SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id != $2)`,
				email, userID).Scan(&taken)
			if err != nil {
				http.Error(w, "Database query failed", http.StatusInternalServerError)
				log.Printf("UpdateProfile email check error: %v", err)
				return
			}
			if taken {
				http.Error(w, "Email already registered", http.StatusBadRequest)
				return
			}

			if _, err := db.Exec(`UPDATE users SET email = $1 WHERE id = $2`, email, userID); err != nil {
				http.Error(w, "Failed to update profile", http.StatusInternalServerError)
				log.Printf("UpdateProfile email update error: %v", err)
				return
			}
		}

		if req.FullName != nil {
			if _, err := db.Exec(`UPDATE users SET full_name = $1 WHERE id = $2`, *req.FullName, userID); err != nil {
				http.Error(w, "Failed to update profile", http.StatusInternalServerError)
				log.Printf("UpdateProfile name update error: %v", err)
				return
			}
		}

		u, err := fetchUser(db, userID)
		if err != nil {
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			log.Printf("UpdateProfile fetch error: %v", err)
			return
		}
		writeProfile(w, u)
	}
}

func ChangePassword(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var req struct {
			CurrentPassword string `json:"current_password"`
			NewPassword     string `json:"new_password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRow(`SELECT password FROM users WHERE id = $1`, userID).Scan(&storedHash)
		if err != nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(req.CurrentPassword)) != nil {
			http.Error(w, "Current password is incorrect", http.StatusUnauthorized)
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "Failed to hash password", http.StatusInternalServerError)
			return
		}

		if _, err := db.Exec(`UPDATE users SET password = $1 WHERE id = $2`, string(hashedPassword), userID); err != nil {
			http.Error(w, "Failed to change password", http.StatusInternalServerError)
			log.Printf("ChangePassword error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Password changed successfully"})
	}
}

// DeleteAccount soft deletes: the row stays, the account stops working.
func DeleteAccount(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		if _, err := db.Exec(`UPDATE users SET is_active = FALSE WHERE id = $1`, userID); err != nil {
			http.Error(w, "Failed to delete account", http.StatusInternalServerError)
			log.Printf("DeleteAccount error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Account deleted successfully"})
	}
}

// UploadProfileImage stores the image inline as a base64 data URL on the
// user row. Max 5MB, images only.
func UploadProfileImage(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, "photo file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			http.Error(w, "File must be an image", http.StatusBadRequest)
			return
		}

		imageData, err := io.ReadAll(io.LimitReader(file, maxProfileImageBytes+1))
		if err != nil {
			http.Error(w, "Failed to read image", http.StatusInternalServerError)
			return
		}
		if len(imageData) > maxProfileImageBytes {
			http.Error(w, "Image size must be less than 5MB", http.StatusBadRequest)
			return
		}

		dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData))

		if _, err := db.Exec(`UPDATE users SET profile_image = $1 WHERE id = $2`, dataURL, userID); err != nil {
			http.Error(w, "Failed to save profile image", http.StatusInternalServerError)
			log.Printf("UploadProfileImage error: %v", err)
			return
		}

		u, err := fetchUser(db, userID)
		if err != nil {
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			return
		}
		writeProfile(w, u)
	}
}

func DeleteProfileImage(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		if _, err := db.Exec(`UPDATE users SET profile_image = NULL WHERE id = $1`, userID); err != nil {
			http.Error(w, "Failed to delete profile image", http.StatusInternalServerError)
			log.Printf("DeleteProfileImage error: %v", err)
			return
		}

		u, err := fetchUser(db, userID)
		if err != nil {
			http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
			return
		}
		writeProfile(w, u)
	}
}

// RegisterFCMToken upserts a device token so reminder and SOS alerts can be
// pushed to this device.
func RegisterFCMToken(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Token == "" {
			http.Error(w, "FCM token is required", http.StatusBadRequest)
			return
		}

		_, err := db.Exec(`
			INSERT INTO fcm_tokens (user_id, token, created_at, updated_at)
			VALUES ($1, $2, NOW(), NOW())
			ON CONFLICT (user_id, token)
			DO UPDATE SET updated_at = NOW()`,
			userID, req.Token)
		if err != nil {
			http.Error(w, "Failed to register FCM token", http.StatusInternalServerError)
			log.Printf("RegisterFCMToken error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"message": "FCM token registered successfully",
		})
	}
}
