// Package handler はHTTP APIのハンドラー層を提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/middleware"
	"github.com/fatimazahraessad/gestion-test-enligne/internal/model"
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeInvalidBody はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeInvalidBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "REQUETE_INVALIDE",
		Message:  "Le corps de la requête n'a pas pu être analysé.",
		Category: "validation",
		Action:   "Envoyez une requête au format JSON valide.",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDonneesInvalides:
		return http.StatusBadRequest
	case model.ErrCodeEmailDejaUtilise,
		model.ErrCodeCandidatDejaValide,
		model.ErrCodeCreneauComplet,
		model.ErrCodeCreneauUtilise,
		model.ErrCodeCreneauHorsFenetre,
		model.ErrCodeTestDejaTermine,
		model.ErrCodeTempsEcoule,
		model.ErrCodeQuestionUtilisee,
		model.ErrCodeCodeNonEmis:
		return http.StatusConflict
	case model.ErrCodeCodeSessionInvalide, model.ErrCodeIdentifiantsInvalides:
		return http.StatusUnauthorized
	case model.ErrCodeCandidatIntrouvable,
		model.ErrCodeCreneauIntrouvable,
		model.ErrCodeSessionIntrouvable,
		model.ErrCodeQuestionIntrouvable,
		model.ErrCodeThemeIntrouvable,
		model.ErrCodeParametreIntrouvable:
		return http.StatusNotFound
	case model.ErrCodeQuestionHorsSession, model.ErrCodeQuestionSansBonne:
		return http.StatusUnprocessableEntity
	case model.ErrCodeAucuneQuestion:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
