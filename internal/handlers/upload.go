package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ecoshop_back_end/internal/apperrors"
)

// SaveUploads écrit les fichiers multipart du champ dans dir et retourne leurs chemins.
// Une requête non multipart ne donne aucun fichier. En cas d'erreur, les fichiers déjà écrits sont supprimés.
func SaveUploads(c *gin.Context, dir, field string, limit int) ([]string, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.Validation("Invalid multipart form")
	}

	files := form.File[field]
	if limit > 0 && len(files) > limit {
		return nil, apperrors.Validation(fmt.Sprintf("At most %d %s are allowed", limit, field))
	}

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		dst := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			RemoveUploads(paths)
			return nil, apperrors.Internal(fmt.Errorf("save upload %s: %w", fh.Filename, err))
		}
		paths = append(paths, dst)
	}
	return paths, nil
}

// SaveUpload est SaveUploads pour un seul fichier optionnel.
func SaveUpload(c *gin.Context, dir, field string) (string, error) {
	paths, err := SaveUploads(c, dir, field, 1)
	if err != nil || len(paths) == 0 {
		return "", err
	}
	return paths[0], nil
}

func RemoveUploads(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
