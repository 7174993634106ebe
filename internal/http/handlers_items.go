package http

import (
	"net/http"
	"strconv"

	"hamsterwallet/internal/upstream"
)

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		badRequest(w, "无效的商品 ID")
		return
	}
	item, err := s.editor.Load(r.Context(), id)
	if err != nil {
		writeToastError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		badRequest(w, "无效的商品 ID")
		return
	}
	var update upstream.ItemUpdate
	if err := readJSON(r, &update); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	item, err := s.editor.Update(r.Context(), id, update)
	if err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "商品已更新", item)
}
