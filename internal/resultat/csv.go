package resultat

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader はエクスポートの列構成。フロントエンドの取り込みが依存するため変更しない。
var csvHeader = []string{
	"Nom", "Prenom", "Ecole", "Filiere", "Email",
	"Date Test", "Score", "Score Max", "Pourcentage", "Code Session",
}

// ExporterCSV は期間内の終了済みセッションをCSVとして書き出す。
func (s *Service) ExporterCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	sessions, err := s.sessionRepo.ListCompletedBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("終了済みセッションの取得に失敗しました: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("CSVヘッダの書き込みに失敗しました: %w", err)
	}

	for _, session := range sessions {
		record := []string{
			session.NomCandidat,
			session.PrenomCandidat,
			session.Ecole,
			session.Filiere,
			session.Email,
			session.DateDebut.Format("2006-01-02 15:04"),
			strconv.Itoa(session.ScoreTotal),
			strconv.Itoa(session.ScoreMax),
			strconv.Itoa(session.Pourcentage),
			session.CodeSession,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("CSV行の書き込みに失敗しました: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("CSVの出力に失敗しました: %w", err)
	}
	return nil
}
