/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Messaging combines a CatalogSource with a MetadataStore to select
// messages.
//
// Messaging keeps no state between calls, so it's safe for
// concurrent use if its collaborators are.
type Messaging struct {
	Catalogs  CatalogSource
	Store     MetadataStore
	Platform  Platform
	Exposures ExposureRecorder

	// Attributes, if not nil, provides custom attributes for
	// each Helper.
	Attributes AttributeProvider

	// Logger, if nil, is replaced by a no-op logger.
	Logger *zap.Logger
}

// NewMessaging makes a Messaging.  The Logger and Attributes are
// optional and can be set afterwards.
func NewMessaging(cs CatalogSource, store MetadataStore, p Platform, exposures ExposureRecorder) *Messaging {
	return &Messaging{
		Catalogs:  cs,
		Store:     store,
		Platform:  p,
		Exposures: exposures,
	}
}

func (s *Messaging) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Messaging) catalog() (*Catalog, error) {
	if s.Catalogs == nil {
		return nil, NoCatalog
	}
	c := s.Catalogs.Catalog()
	if c == nil {
		return nil, NoCatalog
	}
	return c, nil
}

func (s *Messaging) createHelper(ctx context.Context) (Helper, error) {
	var attrs map[string]interface{}
	if s.Attributes != nil {
		attrs = s.Attributes(ctx)
	}
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	return s.Platform.CreateHelper(ctx, attrs)
}

// ListEligibleMessages returns the available messages sorted by
// descending priority.
//
// A message is available if it resolved cleanly against the Catalog
// and IsAvailable says so.  Triggers are not evaluated here.
func (s *Messaging) ListEligibleMessages(ctx context.Context) ([]*Message, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, err
	}

	ms, err := s.loadMessages(ctx, c)
	if err != nil {
		return nil, err
	}

	acc := make([]*Message, 0, len(ms))
	for _, m := range ms {
		if IsAvailable(m) {
			acc = append(acc, m)
		}
	}

	Rank(acc)

	return acc, nil
}

// ListMessages returns every well-formed message in catalog order,
// whether or not it is available.
func (s *Messaging) ListMessages(ctx context.Context) ([]*Message, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, err
	}
	return s.loadMessages(ctx, c)
}

// FindMessage returns the well-formed message with the given id.
func (s *Messaging) FindMessage(ctx context.Context, id string) (*Message, error) {
	ms, err := s.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	return Find(ms, id)
}

// GetNextMessage returns the first of the given messages for which
// all triggers are true, subject to the Catalog's experiment policy.
//
// The given messages should come from ListEligibleMessages.  The
// result is nil (and no error) if there's nothing to show.
func (s *Messaging) GetNextMessage(ctx context.Context, available []*Message) (*Message, error) {
	c, err := s.catalog()
	if err != nil {
		return nil, err
	}

	helper, err := s.createHelper(ctx)
	if err != nil {
		return nil, fmt.Errorf("create helper: %w", err)
	}

	// This cache lives only as long as this call.
	cache := make(TriggerCache)

	var message *Message
	for _, m := range available {
		if s.isMessageEligible(ctx, m, helper, cache) {
			message = m
			break
		}
	}

	if message == nil {
		return nil, nil
	}

	if !IsUnderExperiment(message, c.MessageUnderExperiment) {
		return message, nil
	}

	s.recordExposure(ctx, message)

	if !message.IsControl() {
		return message, nil
	}

	// We've got a control message, which is never shown.
	switch c.OnControl {
	case ShowNone:
		s.logger().Debug("control message withheld",
			zap.String("message", message.Id))
		return nil, nil
	default:
		// Start over from the top.  Results are cached, so
		// rechecking the messages we already rejected is
		// cheap.
		for _, m := range available {
			if !m.IsControl() && s.isMessageEligible(ctx, m, helper, cache) {
				return m, nil
			}
		}
		return nil, nil
	}
}

func (s *Messaging) recordExposure(ctx context.Context, m *Message) {
	if s.Exposures == nil {
		return
	}
	if err := s.Exposures.RecordExposure(ctx, m); err != nil {
		s.logger().Warn("exposure not recorded",
			zap.String("message", m.Id),
			zap.Error(err))
	}
}

// Find returns the message with the given id.
func Find(ms []*Message, id string) (*Message, error) {
	for _, m := range ms {
		if m.Id == id {
			return m, nil
		}
	}
	return nil, &UnknownMessage{Id: id}
}
