package service

import (
	"context"
	"strings"
	"sync"

	"support-chatbot-be/internal/entity"
	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/internal/repository/contract"
	"support-chatbot-be/internal/repository/specification"
	"support-chatbot-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory fakes shared by the service tests. They honor the specification
// types the services actually use and ignore ordering/pagination beyond the
// obvious.

type fakeLogger struct {
	mu      sync.Mutex
	entries []string
}

func (f *fakeLogger) log(level, module, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, level+" "+module+": "+message)
}

func (f *fakeLogger) Debug(module, message string, details map[string]interface{}) {
	f.log("DEBUG", module, message)
}

func (f *fakeLogger) Info(module, message string, details map[string]interface{}) {
	f.log("INFO", module, message)
}

func (f *fakeLogger) Warn(module, message string, details map[string]interface{}) {
	f.log("WARN", module, message)
}

func (f *fakeLogger) Error(module, message string, details map[string]interface{}) {
	f.log("ERROR", module, message)
}

func (f *fakeLogger) Sync() error { return nil }

func (f *fakeLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}

func (f *fakeLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

func (f *fakeLogger) contains(fragment string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if strings.Contains(e, fragment) {
			return true
		}
	}
	return false
}

// --- Repositories ---

type fakeChatHistoryRepo struct {
	histories []*entity.ChatHistory
	err       error
}

func matchesHistory(h *entity.ChatHistory, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByChatbotId:
			if h.ChatbotId != s.ChatbotId {
				return false
			}
		case specification.ByRoomId:
			if h.RoomId != s.RoomId {
				return false
			}
		case specification.ByUserEmail:
			if h.UserEmail != s.Email {
				return false
			}
		}
	}
	return true
}

func (r *fakeChatHistoryRepo) Create(ctx context.Context, history *entity.ChatHistory) error {
	if r.err != nil {
		return r.err
	}
	r.histories = append(r.histories, history)
	return nil
}

func (r *fakeChatHistoryRepo) Update(ctx context.Context, history *entity.ChatHistory) error {
	return r.err
}

func (r *fakeChatHistoryRepo) DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error {
	if r.err != nil {
		return r.err
	}
	kept := r.histories[:0]
	for _, h := range r.histories {
		if !(h.ChatbotId == chatbotId && h.RoomId == roomId) {
			kept = append(kept, h)
		}
	}
	r.histories = kept
	return nil
}

func (r *fakeChatHistoryRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatHistory, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, h := range r.histories {
		if matchesHistory(h, specs) {
			return h, nil
		}
	}
	return nil, nil
}

func (r *fakeChatHistoryRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatHistory, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.ChatHistory
	for _, h := range r.histories {
		if matchesHistory(h, specs) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeChatHistoryRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeQARecordRepo struct {
	records []*entity.QARecord
	err     error
}

func matchesRecord(rec *entity.QARecord, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByChatbotId:
			if rec.ChatbotId != s.ChatbotId {
				return false
			}
		case specification.ByRoomId:
			if rec.RoomId != s.RoomId {
				return false
			}
		case specification.ByQaId:
			if rec.QaId != s.QaId {
				return false
			}
		}
	}
	return true
}

func (r *fakeQARecordRepo) Create(ctx context.Context, record *entity.QARecord) error {
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *fakeQARecordRepo) Update(ctx context.Context, record *entity.QARecord) error {
	return r.err
}

func (r *fakeQARecordRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.QARecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, rec := range r.records {
		if matchesRecord(rec, specs) {
			return rec, nil
		}
	}
	return nil, nil
}

func (r *fakeQARecordRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.QARecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*entity.QARecord
	for _, rec := range r.records {
		if matchesRecord(rec, specs) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeQARecordRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type fakeRoomSessionRepo struct {
	sessions []*entity.RoomSession
	err      error
}

func matchesSession(s *entity.RoomSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByChatbotId:
			if s.ChatbotId != sp.ChatbotId {
				return false
			}
		case specification.ByRoomId:
			if s.RoomId != sp.RoomId {
				return false
			}
		}
	}
	return true
}

func (r *fakeRoomSessionRepo) Create(ctx context.Context, session *entity.RoomSession) error {
	if r.err != nil {
		return r.err
	}
	r.sessions = append(r.sessions, session)
	return nil
}

func (r *fakeRoomSessionRepo) Update(ctx context.Context, session *entity.RoomSession) error {
	return r.err
}

func (r *fakeRoomSessionRepo) DeleteByRoomId(ctx context.Context, chatbotId, roomId string) error {
	if r.err != nil {
		return r.err
	}
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if !(s.ChatbotId == chatbotId && s.RoomId == roomId) {
			kept = append(kept, s)
		}
	}
	r.sessions = kept
	return nil
}

func (r *fakeRoomSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.RoomSession, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, s := range r.sessions {
		if matchesSession(s, specs) {
			return s, nil
		}
	}
	return nil, nil
}

type fakeKnowledgeRepo struct {
	rows []*entity.KnowledgeEmbedding
	err  error
}

func (r *fakeKnowledgeRepo) Create(ctx context.Context, embedding *entity.KnowledgeEmbedding) error {
	return r.Upsert(ctx, embedding)
}

func (r *fakeKnowledgeRepo) CreateBulk(ctx context.Context, embeddings []*entity.KnowledgeEmbedding) error {
	for _, e := range embeddings {
		if err := r.Upsert(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeKnowledgeRepo) Upsert(ctx context.Context, embedding *entity.KnowledgeEmbedding) error {
	if r.err != nil {
		return r.err
	}
	for i, row := range r.rows {
		if row.DocId == embedding.DocId {
			r.rows[i] = embedding
			return nil
		}
	}
	r.rows = append(r.rows, embedding)
	return nil
}

func (r *fakeKnowledgeRepo) Delete(ctx context.Context, id uuid.UUID) error { return r.err }

func matchesKnowledge(e *entity.KnowledgeEmbedding, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByDocId:
			if e.DocId != s.DocId {
				return false
			}
		case specification.ByChatbotId:
			if e.ChatbotId != s.ChatbotId {
				return false
			}
		}
	}
	return true
}

func (r *fakeKnowledgeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeEmbedding, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, row := range r.rows {
		if matchesKnowledge(row, specs) {
			return row, nil
		}
	}
	return nil, nil
}

func (r *fakeKnowledgeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeEmbedding, error) {
	return r.rows, r.err
}

func (r *fakeKnowledgeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.rows)), r.err
}

func (r *fakeKnowledgeRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64, filter contract.VectorSearchFilter) ([]*contract.ScoredKnowledgeEmbedding, error) {
	return nil, r.err
}

// --- Unit of work ---

type fakeUnitOfWork struct {
	chatHistories *fakeChatHistoryRepo
	qaRecords     *fakeQARecordRepo
	roomSessions  *fakeRoomSessionRepo
	knowledge     *fakeKnowledgeRepo

	beginErr  error
	commitErr error
	commits   int
	rollbacks int
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return u.beginErr }

func (u *fakeUnitOfWork) Commit() error {
	if u.commitErr != nil {
		return u.commitErr
	}
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.rollbacks++
	return nil
}

func (u *fakeUnitOfWork) ChatHistoryRepository() contract.ChatHistoryRepository {
	return u.chatHistories
}

func (u *fakeUnitOfWork) QARecordRepository() contract.QARecordRepository {
	return u.qaRecords
}

func (u *fakeUnitOfWork) RoomSessionRepository() contract.RoomSessionRepository {
	return u.roomSessions
}

func (u *fakeUnitOfWork) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return u.knowledge
}

type fakeUowFactory struct {
	uow *fakeUnitOfWork
}

func newFakeUowFactory() *fakeUowFactory {
	return &fakeUowFactory{uow: &fakeUnitOfWork{
		chatHistories: &fakeChatHistoryRepo{},
		qaRecords:     &fakeQARecordRepo{},
		roomSessions:  &fakeRoomSessionRepo{},
		knowledge:     &fakeKnowledgeRepo{},
	}}
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}
