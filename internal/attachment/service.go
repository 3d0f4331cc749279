// Package attachment stores binary attachments referenced from comments. The
// payload is kept inline in the record or, when object storage is configured,
// offloaded to a BlobStore with only its key and checksum on the record.
package attachment

import (
	"context"
	"fmt"
	"maps"
	"strconv"

	"github.com/bwmarrin/snowflake"

	"annotastore/internal/apperr"
	"annotastore/internal/identity"
	"annotastore/internal/response"
	"annotastore/internal/store"
	"annotastore/pkg/logger"
)

const DefaultMaxSize int64 = 10 << 20

type Options struct {
	// Blobs offloads payloads when set.
	Blobs   BlobStore
	Node    *snowflake.Node
	MaxSize int64
	// URLPath is the prefix of the download URL; the id is appended.
	URLPath string
	APIKey  string
}

type Service struct {
	records store.Collection[Attachment]
	blobs   BlobStore
	node    *snowflake.Node
	maxSize int64
	urlPath string
	apiKey  string
}

func NewService(records store.Collection[Attachment], opts Options) (*Service, error) {
	node := opts.Node
	if node == nil {
		var err error
		if node, err = snowflake.NewNode(1); err != nil {
			return nil, err
		}
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.URLPath == "" {
		opts.URLPath = "/api/attachments/"
	}
	return &Service{
		records: records,
		blobs:   opts.Blobs,
		node:    node,
		maxSize: opts.MaxSize,
		urlPath: opts.URLPath,
		apiKey:  opts.APIKey,
	}, nil
}

// Get returns the attachment with its payload.
func (s *Service) Get(ctx context.Context, org string, attachmentID int64) response.Envelope[Attachment] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[Attachment](err)
	}

	att, ok, err := store.FetchOne(ctx, s.records, scope, key(attachmentID))
	if err != nil {
		logger.Sugar.Errorf("Failed to get attachment %d for organization %s: %v", attachmentID, scope.OrganizationID(), err)
		return response.Fail[Attachment](apperr.Storage("getting attachment", err))
	}
	if !ok {
		return response.Fail[Attachment](apperr.NotFound("attachment %d not found", attachmentID))
	}

	if att.ObjectKey != "" && len(att.Data) == 0 {
		if s.blobs == nil {
			return response.Fail[Attachment](apperr.Storage("getting attachment", fmt.Errorf("object %s stored but no blob store configured", att.ObjectKey)))
		}
		data, err := s.blobs.Get(ctx, att.ObjectKey)
		if err != nil {
			logger.Sugar.Errorf("Failed to read object %s: %v", att.ObjectKey, err)
			return response.Fail[Attachment](apperr.Storage("getting attachment", err))
		}
		if att.Checksum != "" && hashSHA256(data) != att.Checksum {
			return response.Fail[Attachment](apperr.Storage("getting attachment", fmt.Errorf("checksum mismatch for object %s", att.ObjectKey)))
		}
		att.Data = data
	}
	return response.OK(att)
}

// Save decodes and validates in, then replaces the attachment record. A new
// id is generated when in carries none.
func (s *Service) Save(ctx context.Context, org string, in SaveInput, documentID string) response.Envelope[SaveData] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[SaveData](err)
	}
	att, err := s.build(scope, in, documentID)
	if err != nil {
		return response.Fail[SaveData](err)
	}

	var previous string
	if s.blobs != nil {
		old, ok, err := store.FetchOne(ctx, s.records, scope, key(att.AttachmentID))
		if err != nil {
			logger.Sugar.Errorf("Failed to load attachment %d for organization %s: %v", att.AttachmentID, scope.OrganizationID(), err)
			return response.Fail[SaveData](apperr.Storage("saving attachment", err))
		}
		if ok {
			previous = old.ObjectKey
		}

		att.ObjectKey = objectKey(scope.OrganizationID(), att.Name)
		if err := s.blobs.Put(ctx, att.ObjectKey, att.MimeType, att.Data); err != nil {
			logger.Sugar.Errorf("Failed to upload object %s: %v", att.ObjectKey, err)
			return response.Fail[SaveData](apperr.Storage("saving attachment", err))
		}
		att.Data = nil
	}

	if _, err := s.records.Upsert(ctx, scope, store.Key{Partition: documentID, ID: key(att.AttachmentID)}, att); err != nil {
		logger.Sugar.Errorf("Failed to save attachment %d for organization %s: %v", att.AttachmentID, scope.OrganizationID(), err)
		if att.ObjectKey != "" {
			s.removeObject(ctx, att.ObjectKey)
		}
		return response.Fail[SaveData](apperr.Storage("saving attachment", err))
	}
	if previous != "" && previous != att.ObjectKey {
		s.removeObject(ctx, previous)
	}

	logger.Sugar.Infof("Saved attachment %d (%d bytes) for organization %s", att.AttachmentID, att.Size, scope.OrganizationID())
	return response.OK(SaveData{AttachmentID: att.AttachmentID, URL: att.URL})
}

func (s *Service) build(scope identity.Scope, in SaveInput, documentID string) (Attachment, error) {
	name, err := validateName(in.Name)
	if err != nil {
		return Attachment{}, err
	}
	data, declared, err := decodeFile(in.File)
	if err != nil {
		return Attachment{}, err
	}
	size := int64(len(data))
	if in.Size != nil && *in.Size != size {
		return Attachment{}, apperr.Validation("attachment size %d does not match file length %d", *in.Size, size)
	}
	if size > s.maxSize {
		return Attachment{}, apperr.Validation("attachment exceeds the maximum size of %d bytes", s.maxSize)
	}
	if in.MimeType != "" {
		declared = in.MimeType
	}
	mimeType, err := resolveContentType(declared, data)
	if err != nil {
		return Attachment{}, err
	}
	if in.AttachmentID < 0 {
		return Attachment{}, apperr.Validation("attachmentId must be a positive integer")
	}

	id := in.AttachmentID
	if id == 0 {
		id = s.node.Generate().Int64()
	}

	metadata := maps.Clone(in.Metadata)
	if s.apiKey != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["apiKey"] = s.apiKey
	}

	return Attachment{
		OrganizationID: scope.OrganizationID(),
		AttachmentID:   id,
		DocumentID:     documentID,
		AnnotationID:   in.AnnotationID,
		Name:           name,
		MimeType:       mimeType,
		Data:           data,
		Size:           size,
		Checksum:       hashSHA256(data),
		URL:            s.urlPath + strconv.FormatInt(id, 10),
		Metadata:       metadata,
	}, nil
}

// Delete removes the attachment. Deleting an unknown id succeeds.
func (s *Service) Delete(ctx context.Context, org string, attachmentID int64) response.Envelope[response.None] {
	scope, err := identity.Authorize(ctx, org)
	if err != nil {
		return response.Fail[response.None](err)
	}

	var object string
	if s.blobs != nil {
		att, ok, err := store.FetchOne(ctx, s.records, scope, key(attachmentID))
		if err != nil {
			logger.Sugar.Errorf("Failed to load attachment %d for organization %s: %v", attachmentID, scope.OrganizationID(), err)
			return response.Fail[response.None](apperr.Storage("deleting attachment", err))
		}
		if ok {
			object = att.ObjectKey
		}
	}

	if err := s.records.DeleteOne(ctx, scope, key(attachmentID)); err != nil {
		logger.Sugar.Errorf("Failed to delete attachment %d for organization %s: %v", attachmentID, scope.OrganizationID(), err)
		return response.Fail[response.None](apperr.Storage("deleting attachment", err))
	}
	if object != "" {
		s.removeObject(ctx, object)
	}
	return response.OK(response.None{})
}

func (s *Service) removeObject(ctx context.Context, objectKey string) {
	if err := s.blobs.Remove(ctx, objectKey); err != nil {
		logger.Sugar.Warnf("Failed to remove object %s: %v", objectKey, err)
	}
}
