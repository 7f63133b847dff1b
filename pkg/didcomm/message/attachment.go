/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	jsonutil "github.com/hyperledger/edge-agent-sdk-go/pkg/doc/util/json"
)

// AttachmentData is one of the attachment payload variants below.
type AttachmentData interface {
	attachmentData()
}

// Base64Data carries base64url encoded bytes.
type Base64Data struct {
	Base64 string `json:"base64"`
}

// JSONData carries an inline JSON value.
type JSONData struct {
	JSON json.RawMessage `json:"json"`
}

// JWSData carries a detached JWS.
type JWSData struct {
	JWS json.RawMessage `json:"jws"`
}

// SignedBase64Data carries base64url bytes with their JWS.
type SignedBase64Data struct {
	Base64 string          `json:"base64"`
	JWS    json.RawMessage `json:"jws"`
}

// LinkData points at content held elsewhere.
type LinkData struct {
	Links []string `json:"links"`
	Hash  string   `json:"hash"`
}

// HeaderData groups child attachments by reference.
type HeaderData struct {
	Children string `json:"children"`
}

// UnknownData keeps payloads in an unrecognized shape.
type UnknownData struct {
	Raw json.RawMessage
}

func (Base64Data) attachmentData()       {}
func (JSONData) attachmentData()         {}
func (JWSData) attachmentData()          {}
func (SignedBase64Data) attachmentData() {}
func (LinkData) attachmentData()         {}
func (HeaderData) attachmentData()       {}
func (UnknownData) attachmentData()      {}

// Attachment is a DIDComm v2 attachment.
type Attachment struct {
	ID          string
	MediaType   string
	Data        AttachmentData
	Filename    string
	Format      string
	LastmodTime *time.Time
	ByteCount   int64
	Description string
}

// NewBase64Attachment attaches raw bytes. An empty id gets a generated one.
func NewBase64Attachment(id, mediaType, format string, data []byte) Attachment {
	return Attachment{
		ID:        idOrNew(id),
		MediaType: mediaType,
		Format:    format,
		Data:      Base64Data{Base64: base64.RawURLEncoding.EncodeToString(data)},
	}
}

// NewJSONAttachment attaches v as inline JSON.
func NewJSONAttachment(id, format string, v interface{}) (Attachment, error) {
	raw, err := jsonutil.Marshal(v)
	if err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	return Attachment{
		ID:        idOrNew(id),
		MediaType: "application/json",
		Format:    format,
		Data:      JSONData{JSON: raw},
	}, nil
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.New().String()
	}

	return id
}

// Bytes returns the inline payload: decoded base64url for Base64 (padding tolerated),
// canonical JSON for JSON, the serialized JWS for JWS.
func (a *Attachment) Bytes() ([]byte, error) {
	switch d := a.Data.(type) {
	case Base64Data:
		return DecodeBase64URL(d.Base64)
	case SignedBase64Data:
		return DecodeBase64URL(d.Base64)
	case JSONData:
		out, err := jsonutil.Canonical(d.JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
		}

		return out, nil
	case JWSData:
		var compact string
		if err := json.Unmarshal(d.JWS, &compact); err == nil {
			return []byte(compact), nil
		}

		return jsonutil.Canonical(d.JWS)
	default:
		return nil, fmt.Errorf("%w: attachment %s has no inline data", ErrUnknownAttachmentData, a.ID)
	}
}

// DecodeBase64URL decodes base64url, with or without padding.
func DecodeBase64URL(s string) ([]byte, error) {
	out, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: base64url: %v", ErrInvalidAttachment, err)
	}

	return out, nil
}

type rawAttachment struct {
	ID          string          `json:"id"`
	MediaType   string          `json:"media_type,omitempty"`
	Data        json.RawMessage `json:"data"`
	Filename    string          `json:"filename,omitempty"`
	Format      string          `json:"format,omitempty"`
	LastmodTime *time.Time      `json:"lastmod_time,omitempty"`
	ByteCount   int64           `json:"byte_count,omitempty"`
	Description string          `json:"description,omitempty"`
}

// MarshalJSON encodes the attachment.
func (a Attachment) MarshalJSON() ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch d := a.Data.(type) {
	case UnknownData:
		data = d.Raw
	case nil:
		data = []byte("{}")
	default:
		data, err = json.Marshal(d)
		if err != nil {
			return nil, err
		}
	}

	return json.Marshal(rawAttachment{
		ID:          a.ID,
		MediaType:   a.MediaType,
		Data:        data,
		Filename:    a.Filename,
		Format:      a.Format,
		LastmodTime: a.LastmodTime,
		ByteCount:   a.ByteCount,
		Description: a.Description,
	})
}

// UnmarshalJSON decodes the attachment. An empty id is an error.
func (a *Attachment) UnmarshalJSON(b []byte) error {
	var raw rawAttachment
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAttachment, err)
	}

	if raw.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAttachment)
	}

	data, err := decodeData(raw.Data)
	if err != nil {
		return err
	}

	*a = Attachment{
		ID:          raw.ID,
		MediaType:   raw.MediaType,
		Data:        data,
		Filename:    raw.Filename,
		Format:      raw.Format,
		LastmodTime: raw.LastmodTime,
		ByteCount:   raw.ByteCount,
		Description: raw.Description,
	}

	return nil
}

func decodeData(raw json.RawMessage) (AttachmentData, error) {
	if len(raw) == 0 {
		return UnknownData{Raw: json.RawMessage("{}")}, nil
	}

	members := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidAttachment, err)
	}

	has := func(k string) bool {
		v, ok := members[k]

		return ok && string(v) != "null"
	}

	var (
		out AttachmentData
		err error
	)

	switch {
	case has("links"):
		var d LinkData
		err = json.Unmarshal(raw, &d)
		out = d
	case has("base64") && has("jws"):
		var d SignedBase64Data
		err = json.Unmarshal(raw, &d)
		out = d
	case has("base64"):
		var d Base64Data
		err = json.Unmarshal(raw, &d)
		out = d
	case has("jws"):
		out = JWSData{JWS: members["jws"]}
	case has("json"):
		out = JSONData{JSON: members["json"]}
	case has("children"):
		var d HeaderData
		err = json.Unmarshal(raw, &d)
		out = d
	default:
		out = UnknownData{Raw: raw}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrInvalidAttachment, err)
	}

	return out, nil
}
