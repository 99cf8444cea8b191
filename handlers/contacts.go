package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"mindtrace.com/mindtrace-server/middleware"
	"mindtrace.com/mindtrace-server/models"
)

const contactColumns = `id, user_id, name, relationship, relationship_detail,
       avatar, color, phone_number, email, notes, visit_frequency,
       profile_photo, last_seen, is_active`

func scanContact(row interface {
	Scan(dest ...interface{}) error
}) (models.Contact, error) {
	var c models.Contact
	var relationshipDetail, avatar, phoneNumber, email, notes, visitFrequency, profilePhoto sql.NullString
	var lastSeen sql.NullTime

	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Relationship, &relationshipDetail,
		&avatar, &c.Color, &phoneNumber, &email, &notes, &visitFrequency,
		&profilePhoto, &lastSeen, &c.IsActive)
	if err != nil {
		return c, err
	}

	if relationshipDetail.Valid {
		c.RelationshipDetail = &relationshipDetail.String
	}
	if avatar.Valid {
		c.Avatar = &avatar.String
	}
	if phoneNumber.Valid {
		c.PhoneNumber = &phoneNumber.String
	}
	if email.Valid {
		c.Email = &email.String
	}
	if notes.Valid {
		c.Notes = &notes.String
	}
	if visitFrequency.Valid {
		c.VisitFrequency = &visitFrequency.String
	}
	if profilePhoto.Valid {
		c.ProfilePhoto = &profilePhoto.String
	}
	if lastSeen.Valid {
		t := lastSeen.Time
		c.LastSeen = &t
	}
	return c, nil
}

// avatarInitials derives the avatar text from a contact name: the first two
// runes, uppercased. Runes, not bytes, so non-ASCII names stay valid UTF-8.
func avatarInitials(name string) string {
	initials := []rune(strings.ToUpper(name))
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return string(initials)
}

func GetContacts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit <= 0 || limit > 100 {
			limit = 100
		}

		rows, err := db.Query(`
			SELECT `+contactColumns+`
			FROM contacts
			WHERE user_id = $1 AND is_active = TRUE
			ORDER BY name
			OFFSET $2 LIMIT $3`,
			userID, skip, limit)
		if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetContacts error: %v", err)
			return
		}
		defer rows.Close()

		contacts := []models.Contact{}
		for rows.Next() {
			c, err := scanContact(rows)
			if err != nil {
				http.Error(w, "Error scanning contacts", http.StatusInternalServerError)
				log.Printf("GetContacts scan error: %v", err)
				return
			}
			contacts = append(contacts, c)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "Error iterating contacts", http.StatusInternalServerError)
			log.Printf("GetContacts rows error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(contacts)
	}
}

func CreateContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		var c models.Contact
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if c.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		if c.Color == "" {
			c.Color = "indigo"
		}
		c.UserID = userID
		c.IsActive = true

		err := db.QueryRow(`
			INSERT INTO contacts (user_id, name, relationship, relationship_detail,
			                      avatar, color, phone_number, email, notes,
			                      visit_frequency, profile_photo, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
			RETURNING id`,
			c.UserID, c.Name, c.Relationship, c.RelationshipDetail, c.Avatar,
			c.Color, c.PhoneNumber, c.Email, c.Notes, c.VisitFrequency, c.ProfilePhoto,
		).Scan(&c.ID)
		if err != nil {
			http.Error(w, "Failed to create contact", http.StatusInternalServerError)
			log.Printf("CreateContact error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// CreateContactWithPhoto accepts a multipart form and stores the photo under
// UPLOAD_DIR so it can later feed face recognition.
func CreateContactWithPhoto(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)

		if err := r.ParseMultipartForm(maxProfileImageBytes); err != nil {
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		name := r.FormValue("name")
		relationship := r.FormValue("relationship")
		if name == "" || relationship == "" {
			http.Error(w, "name and relationship are required", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("photo")
		if err != nil {
			http.Error(w, "photo file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		uploadDir := os.Getenv("UPLOAD_DIR")
		if uploadDir == "" {
			uploadDir = "uploads"
		}
		photosDir := filepath.Join(uploadDir, "contacts")
		if err := os.MkdirAll(photosDir, 0o755); err != nil {
			http.Error(w, "Failed to store photo", http.StatusInternalServerError)
			log.Printf("CreateContactWithPhoto mkdir error: %v", err)
			return
		}

		safeName := strings.ToLower(strings.ReplaceAll(name, " ", "_"))
		photoPath := filepath.Join(photosDir,
			fmt.Sprintf("%s_%d%s", safeName, userID, filepath.Ext(header.Filename)))

		out, err := os.Create(photoPath)
		if err != nil {
			http.Error(w, "Failed to store photo", http.StatusInternalServerError)
			log.Printf("CreateContactWithPhoto create error: %v", err)
			return
		}
		defer out.Close()
		if _, err := io.Copy(out, file); err != nil {
			http.Error(w, "Failed to store photo", http.StatusInternalServerError)
			log.Printf("CreateContactWithPhoto copy error: %v", err)
			return
		}

		avatar := avatarInitials(name)

		c := models.Contact{
			UserID:       userID,
			Name:         name,
			Relationship: relationship,
			Color:        "indigo",
			Avatar:       &avatar,
			ProfilePhoto: &photoPath,
			IsActive:     true,
		}
		for field, dest := range map[string]**string{
			"relationship_detail": &c.RelationshipDetail,
			"phone_number":        &c.PhoneNumber,
			"email":               &c.Email,
			"notes":               &c.Notes,
			"visit_frequency":     &c.VisitFrequency,
		} {
			if v := r.FormValue(field); v != "" {
				value := v
				*dest = &value
			}
		}

		err = db.QueryRow(`
			INSERT INTO contacts (user_id, name, relationship, relationship_detail,
			                      avatar, color, phone_number, email, notes,
			                      visit_frequency, profile_photo, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE)
			RETURNING id`,
			c.UserID, c.Name, c.Relationship, c.RelationshipDetail, c.Avatar,
			c.Color, c.PhoneNumber, c.Email, c.Notes, c.VisitFrequency, c.ProfilePhoto,
		).Scan(&c.ID)
		if err != nil {
			http.Error(w, "Failed to create contact", http.StatusInternalServerError)
			log.Printf("CreateContactWithPhoto insert error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func GetContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		contactID := mux.Vars(r)["id"]

		c, err := scanContact(db.QueryRow(`
			SELECT `+contactColumns+`
			FROM contacts
			WHERE id = $1 AND user_id = $2`,
			contactID, userID))
		if err == sql.ErrNoRows {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		} else if err != nil {
			http.Error(w, "Database query failed", http.StatusInternalServerError)
			log.Printf("GetContact error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

func UpdateContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		contactID := mux.Vars(r)["id"]

		var req models.Contact
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "Name is required", http.StatusBadRequest)
			return
		}
		if req.Color == "" {
			req.Color = "indigo"
		}

		res, err := db.Exec(`
			UPDATE contacts
			SET name = $1, relationship = $2, relationship_detail = $3,
			    avatar = $4, color = $5, phone_number = $6, email = $7,
			    notes = $8, visit_frequency = $9, profile_photo = $10
			WHERE id = $11 AND user_id = $12`,
			req.Name, req.Relationship, req.RelationshipDetail, req.Avatar,
			req.Color, req.PhoneNumber, req.Email, req.Notes, req.VisitFrequency,
			req.ProfilePhoto, contactID, userID)
		if err != nil {
			http.Error(w, "Failed to update contact", http.StatusInternalServerError)
			log.Printf("UpdateContact error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		}

		c, err := scanContact(db.QueryRow(`
			SELECT `+contactColumns+`
			FROM contacts
			WHERE id = $1 AND user_id = $2`,
			contactID, userID))
		if err != nil {
			http.Error(w, "Failed to fetch contact", http.StatusInternalServerError)
			log.Printf("UpdateContact fetch error: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(c)
	}
}

// DeleteContact soft deletes so past activity keeps its reference.
func DeleteContact(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middleware.UserID(r)
		contactID := mux.Vars(r)["id"]

		res, err := db.Exec(`
			UPDATE contacts
			SET is_active = FALSE
			WHERE id = $1 AND user_id = $2`,
			contactID, userID)
		if err != nil {
			http.Error(w, "Failed to delete contact", http.StatusInternalServerError)
			log.Printf("DeleteContact error: %v", err)
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			http.Error(w, "Contact not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Contact deleted successfully"})
	}
}
