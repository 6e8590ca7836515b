package handler

import (
	"context"
	"net/http"

	"home-cloud/internal/model"
	"home-cloud/internal/service"
)

type FileOpsHandler struct {
	service *service.FileOpsService
}

func NewFileOpsHandler(service *service.FileOpsService) *FileOpsHandler {
	return &FileOpsHandler{service: service}
}

func (h *FileOpsHandler) Mkdir(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.MkdirRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	newPath, err := h.service.Mkdir(context.WithoutCancel(r.Context()), payload.Path, payload.FolderName)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, model.MkdirResponse{
		Message:       "folder created",
		NewFolderPath: newPath,
	})
}

func (h *FileOpsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.DeleteRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(context.WithoutCancel(r.Context()), payload); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: "deleted " + payload.Name})
}

func (h *FileOpsHandler) MoveCopy(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.MoveCopyRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	newPath, err := h.service.MoveOrCopy(context.WithoutCancel(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	verb := "copied"
	if payload.Mode == model.ModeCut {
		verb = "moved"
	}

	writeJSON(w, http.StatusOK, model.MessageResponse{Message: verb + " to " + newPath})
}
