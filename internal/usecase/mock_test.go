package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hszk-dev/vidvault/internal/domain/model"
	"github.com/hszk-dev/vidvault/internal/domain/repository"
)

// opLog records store calls across fakes so tests can assert ordering.
type opLog struct {
	mu  sync.Mutex
	ops []string
}

func (l *opLog) record(op string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
}

func (l *opLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.ops)
}

// count returns how many times op was recorded.
func (l *opLog) count(op string) int {
	n := 0
	for _, o := range l.all() {
		if o == op {
			n++
		}
	}
	return n
}

// writes returns only the mutating calls.
func (l *opLog) writes() []string {
	var out []string
	for _, op := range l.all() {
		switch op {
		case "blob.put", "blob.delete", "doc.insert", "doc.replace", "doc.update", "doc.update_many", "doc.delete":
			out = append(out, op)
		}
	}
	return out
}

func (l *opLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = nil
}

// memDocumentStore is an in-memory video collection that stores JSON bodies,
// so reads never alias what was written.
type memDocumentStore struct {
	mu   sync.Mutex
	log  *opLog
	docs map[uuid.UUID][]byte

	insertErr error
	findErr   error
	updateErr error
	deleteErr error
}

func newMemDocumentStore(log *opLog) *memDocumentStore {
	return &memDocumentStore{
		log:  log,
		docs: make(map[uuid.UUID][]byte),
	}
}

func (s *memDocumentStore) Insert(ctx context.Context, doc *model.Video) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.insert")

	if s.insertErr != nil {
		return uuid.Nil, s.insertErr
	}
	if doc.DocumentID() == uuid.Nil {
		doc.SetDocumentID(uuid.New())
	}
	if _, exists := s.docs[doc.ID]; exists {
		return uuid.Nil, repository.ErrDuplicateDocument
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return uuid.Nil, err
	}
	s.docs[doc.ID] = body
	return doc.ID, nil
}

func (s *memDocumentStore) FindByID(ctx context.Context, id uuid.UUID) (*model.Video, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.find")

	if s.findErr != nil {
		return nil, false, s.findErr
	}
	body, ok := s.docs[id]
	if !ok {
		return nil, false, nil
	}
	v, err := decodeVideo(body)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *memDocumentStore) FindAll(ctx context.Context) ([]*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.find_all")

	if s.findErr != nil {
		return nil, s.findErr
	}
	out := make([]*model.Video, 0, len(s.docs))
	for _, body := range s.docs {
		v, err := decodeVideo(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *memDocumentStore) FindByField(ctx context.Context, field, value string) ([]*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.find_by_field")

	if s.findErr != nil {
		return nil, s.findErr
	}
	out := make([]*model.Video, 0)
	for _, body := range s.docs {
		if !fieldEquals(body, field, value) {
			continue
		}
		v, err := decodeVideo(body)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *memDocumentStore) ReplaceByID(ctx context.Context, doc *model.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.replace")

	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.docs[doc.ID]; !ok {
		return nil
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.docs[doc.ID] = body
	return nil
}

func (s *memDocumentStore) UpdateByID(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.update")

	if s.updateErr != nil {
		return s.updateErr
	}
	body, ok := s.docs[id]
	if !ok {
		return nil
	}
	merged, err := mergeFields(body, fields)
	if err != nil {
		return err
	}
	s.docs[id] = merged
	return nil
}

func (s *memDocumentStore) UpdateManyByField(ctx context.Context, field, value string, fields map[string]any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.update_many")

	if s.updateErr != nil {
		return 0, s.updateErr
	}
	var n int64
	for id, body := range s.docs {
		if !fieldEquals(body, field, value) {
			continue
		}
		merged, err := mergeFields(body, fields)
		if err != nil {
			return n, err
		}
		s.docs[id] = merged
		n++
	}
	return n, nil
}

func (s *memDocumentStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("doc.delete")

	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.docs, id)
	return nil
}

func (s *memDocumentStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func decodeVideo(body []byte) (*model.Video, error) {
	var v model.Video
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func fieldEquals(body []byte, field, value string) bool {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	got, ok := m[field]
	return ok && fmt.Sprint(got) == value
}

// mergeFields applies a top-level JSON merge, like the JSONB || operator.
func mergeFields(body []byte, fields map[string]any) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	patch, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var p map[string]any
	if err := json.Unmarshal(patch, &p); err != nil {
		return nil, err
	}
	for k, v := range p {
		m[k] = v
	}
	return json.Marshal(m)
}

var _ repository.DocumentRepository[*model.Video] = (*memDocumentStore)(nil)

// memBlobStore is an in-memory blob store with per-call error injection.
type memBlobStore struct {
	mu    sync.Mutex
	log   *opLog
	blobs map[uuid.UUID][]byte
	names map[uuid.UUID]string

	putErr       error
	getErr       error
	deleteErr    error
	deleteErrFor map[uuid.UUID]error
}

func newMemBlobStore(log *opLog) *memBlobStore {
	return &memBlobStore{
		log:          log,
		blobs:        make(map[uuid.UUID][]byte),
		names:        make(map[uuid.UUID]string),
		deleteErrFor: make(map[uuid.UUID]error),
	}
}

func (s *memBlobStore) Put(ctx context.Context, name string, content []byte) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("blob.put")

	if len(content) == 0 {
		return uuid.Nil, repository.ErrEmptyBlob
	}
	if s.putErr != nil {
		return uuid.Nil, s.putErr
	}
	id := uuid.New()
	s.blobs[id] = slices.Clone(content)
	s.names[id] = name
	return id, nil
}

func (s *memBlobStore) Get(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("blob.get")

	if s.getErr != nil {
		return nil, s.getErr
	}
	content, ok := s.blobs[id]
	if !ok {
		return nil, repository.ErrBlobNotFound
	}
	return slices.Clone(content), nil
}

func (s *memBlobStore) Stat(ctx context.Context, id uuid.UUID) (*repository.BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("blob.stat")

	content, ok := s.blobs[id]
	if !ok {
		return nil, repository.ErrBlobNotFound
	}
	return &repository.BlobInfo{ID: id, FileName: s.names[id], Length: int64(len(content))}, nil
}

func (s *memBlobStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.record("blob.delete")

	if err := s.deleteErrFor[id]; err != nil {
		return err
	}
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.blobs, id)
	delete(s.names, id)
	return nil
}

func (s *memBlobStore) has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[id]
	return ok
}

func (s *memBlobStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

// drop removes a blob behind the repository's back.
func (s *memBlobStore) drop(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, id)
}

var _ repository.BlobStore = (*memBlobStore)(nil)

// mockVideoRepository provides a configurable mock for VideoRepository.
type mockVideoRepository struct {
	createVideoFn         func(ctx context.Context, video *model.Video, fileName string, content []byte) (uuid.UUID, error)
	getVideoFn            func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	getVideoFileFn        func(ctx context.Context, id uuid.UUID) ([]byte, error)
	readVideoFileFn       func(ctx context.Context, video *model.Video) ([]byte, error)
	getAllVideosFn        func(ctx context.Context) ([]*model.Video, error)
	getVideosByCreatorFn  func(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error)
	updateVideoFn         func(ctx context.Context, video *model.Video) error
	deleteVideoFn         func(ctx context.Context, id uuid.UUID) error
	updateManyByCreatorFn func(ctx context.Context, creatorID uuid.UUID, update *model.CreatorUpdate) (int64, error)
	deleteManyByCreatorFn func(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
}

func (m *mockVideoRepository) CreateVideo(ctx context.Context, video *model.Video, fileName string, content []byte) (uuid.UUID, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, video, fileName, content)
	}
	return uuid.New(), nil
}

func (m *mockVideoRepository) GetVideo(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	if m.getVideoFn != nil {
		return m.getVideoFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) GetVideoFile(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if m.getVideoFileFn != nil {
		return m.getVideoFileFn(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoRepository) ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error) {
	if m.readVideoFileFn != nil {
		return m.readVideoFileFn(ctx, video)
	}
	return nil, repository.ErrDanglingBlobRef
}

func (m *mockVideoRepository) GetAllVideos(ctx context.Context) ([]*model.Video, error) {
	if m.getAllVideosFn != nil {
		return m.getAllVideosFn(ctx)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) GetVideosByCreator(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error) {
	if m.getVideosByCreatorFn != nil {
		return m.getVideosByCreatorFn(ctx, creatorID)
	}
	return []*model.Video{}, nil
}

func (m *mockVideoRepository) UpdateVideo(ctx context.Context, video *model.Video) error {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, video)
	}
	return nil
}

func (m *mockVideoRepository) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, id)
	}
	return nil
}

func (m *mockVideoRepository) UpdateManyByCreator(ctx context.Context, creatorID uuid.UUID, update *model.CreatorUpdate) (int64, error) {
	if m.updateManyByCreatorFn != nil {
		return m.updateManyByCreatorFn(ctx, creatorID, update)
	}
	return 0, nil
}

func (m *mockVideoRepository) DeleteManyByCreator(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	if m.deleteManyByCreatorFn != nil {
		return m.deleteManyByCreatorFn(ctx, creatorID)
	}
	return nil, nil
}

// mockEventPublisher records published events.
type mockEventPublisher struct {
	mu      sync.Mutex
	updated []repository.VideoUpdatedEvent
	deleted []repository.VideoDeletedEvent
	err     error
}

func (m *mockEventPublisher) PublishVideoUpdated(ctx context.Context, event repository.VideoUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, event)
	return m.err
}

func (m *mockEventPublisher) PublishVideoDeleted(ctx context.Context, event repository.VideoDeletedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, event)
	return m.err
}

// mockVideoService is a mock implementation of VideoService for testing.
type mockVideoService struct {
	createVideoFn         func(ctx context.Context, input CreateVideoInput) (uuid.UUID, error)
	getVideoFn            func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	getVideoWithFileFn    func(ctx context.Context, videoID uuid.UUID) (*VideoWithFile, error)
	readVideoFileFn       func(ctx context.Context, video *model.Video) ([]byte, error)
	listVideosFn          func(ctx context.Context) ([]*model.Video, error)
	listCreatorVideosFn   func(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error)
	updateVideoFn         func(ctx context.Context, input UpdateVideoInput) error
	deleteVideoFn         func(ctx context.Context, videoID uuid.UUID) error
	purgeVideoFn          func(ctx context.Context, videoID uuid.UUID) error
	updateCreatorNameFn   func(ctx context.Context, creatorID uuid.UUID, fullName string) (int64, error)
	deleteCreatorVideosFn func(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error)
	getVideoCount         atomic.Int32
}

func (m *mockVideoService) CreateVideo(ctx context.Context, input CreateVideoInput) (uuid.UUID, error) {
	if m.createVideoFn != nil {
		return m.createVideoFn(ctx, input)
	}
	return uuid.Nil, nil
}

func (m *mockVideoService) GetVideo(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	m.getVideoCount.Add(1)
	if m.getVideoFn != nil {
		return m.getVideoFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockVideoService) GetVideoWithFile(ctx context.Context, videoID uuid.UUID) (*VideoWithFile, error) {
	if m.getVideoWithFileFn != nil {
		return m.getVideoWithFileFn(ctx, videoID)
	}
	return nil, nil
}

func (m *mockVideoService) ReadVideoFile(ctx context.Context, video *model.Video) ([]byte, error) {
	if m.readVideoFileFn != nil {
		return m.readVideoFileFn(ctx, video)
	}
	return nil, nil
}

func (m *mockVideoService) ListVideos(ctx context.Context) ([]*model.Video, error) {
	if m.listVideosFn != nil {
		return m.listVideosFn(ctx)
	}
	return nil, nil
}

func (m *mockVideoService) ListCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]*model.Video, error) {
	if m.listCreatorVideosFn != nil {
		return m.listCreatorVideosFn(ctx, creatorID)
	}
	return nil, nil
}

func (m *mockVideoService) UpdateVideo(ctx context.Context, input UpdateVideoInput) error {
	if m.updateVideoFn != nil {
		return m.updateVideoFn(ctx, input)
	}
	return nil
}

func (m *mockVideoService) DeleteVideo(ctx context.Context, videoID uuid.UUID) error {
	if m.deleteVideoFn != nil {
		return m.deleteVideoFn(ctx, videoID)
	}
	return nil
}

func (m *mockVideoService) PurgeVideo(ctx context.Context, videoID uuid.UUID) error {
	if m.purgeVideoFn != nil {
		return m.purgeVideoFn(ctx, videoID)
	}
	return nil
}

func (m *mockVideoService) UpdateCreatorName(ctx context.Context, creatorID uuid.UUID, fullName string) (int64, error) {
	if m.updateCreatorNameFn != nil {
		return m.updateCreatorNameFn(ctx, creatorID, fullName)
	}
	return 0, nil
}

func (m *mockVideoService) DeleteCreatorVideos(ctx context.Context, creatorID uuid.UUID) ([]uuid.UUID, error) {
	if m.deleteCreatorVideosFn != nil {
		return m.deleteCreatorVideosFn(ctx, creatorID)
	}
	return nil, nil
}

// mockVideoCache is a mock implementation of VideoCache for testing.
type mockVideoCache struct {
	mu       sync.RWMutex
	data     map[uuid.UUID]*model.Video
	getFn    func(ctx context.Context, videoID uuid.UUID) (*model.Video, error)
	setFn    func(ctx context.Context, video *model.Video, ttl time.Duration) error
	deleteFn func(ctx context.Context, videoIDs ...uuid.UUID) error
}

func newMockVideoCache() *mockVideoCache {
	return &mockVideoCache{
		data: make(map[uuid.UUID]*model.Video),
	}
}

func (m *mockVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	if m.getFn != nil {
		return m.getFn(ctx, videoID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[videoID], nil
}

func (m *mockVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, video, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[video.ID] = video
	return nil
}

func (m *mockVideoCache) Delete(ctx context.Context, videoIDs ...uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, videoIDs...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range videoIDs {
		delete(m.data, id)
	}
	return nil
}

func (m *mockVideoCache) has(videoID uuid.UUID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[videoID] != nil
}
