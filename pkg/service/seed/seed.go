package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/interfaces"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/model/capability"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
)

// Registrar accepts tool or context type descriptors
type Registrar interface {
	interfaces.Catalog
	Register(desc capability.Descriptor) error
}

// Summary reports what Apply changed
type Summary struct {
	Tools                int
	Contexts             int
	DefinitionsWritten   int
	DefinitionsUnchanged int
	ExtensionsWritten    int
	ExtensionsUnchanged  int
}

// Load reads and parses the seed document stored under key
func Load(ctx context.Context, storage interfaces.StorageAdapter, key string) (*Document, error) {
	data, err := storage.Get(ctx, key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed document", goerr.TV(apperr.StorageKeyKey, key))
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load seed document", goerr.TV(apperr.StorageKeyKey, key))
	}
	return doc, nil
}

// Apply registers the document's tools and context types, then stores its
// definitions and extensions. Entries identical to the latest stored
// version are skipped, so applying the same document twice creates no new
// versions. Catalog names that are already registered are kept.
func Apply(ctx context.Context, doc *Document, reg interfaces.Registry, tools, contexts Registrar) (*Summary, error) {
	logger := ctxlog.From(ctx)
	var summary Summary

	for _, c := range []struct {
		catalog Registrar
		descs   []capability.Descriptor
		count   *int
	}{
		{tools, doc.Tools, &summary.Tools},
		{contexts, doc.Contexts, &summary.Contexts},
	} {
		for _, desc := range c.descs {
			if c.catalog.Has(desc.Name) {
				continue
			}
			if err := c.catalog.Register(desc); err != nil {
				return nil, err
			}
			*c.count++
		}
	}

	for i := range doc.Definitions {
		def, err := doc.Definitions[i].ToDefinition()
		if err != nil {
			return nil, err
		}

		latest, err := latestDefinition(ctx, reg, def.AgentID)
		if err != nil {
			return nil, err
		}
		if latest != nil && sameDefinition(latest, def) {
			summary.DefinitionsUnchanged++
			continue
		}

		stored, err := reg.PutDefinition(ctx, def)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to seed agent definition", goerr.V("index", i))
		}
		summary.DefinitionsWritten++
		logger.Debug("seeded agent definition", "agent_id", stored.AgentID, "version", stored.Version)
	}

	for i := range doc.Extensions {
		ext, err := doc.Extensions[i].ToExtension()
		if err != nil {
			return nil, err
		}

		latest, err := reg.GetExtension(ctx, ext.AgentID, ext.ExtensionType, ext.ExtensionKey)
		if err != nil {
			return nil, err
		}
		if latest != nil && sameExtension(latest, ext) {
			summary.ExtensionsUnchanged++
			continue
		}

		stored, err := reg.PutExtension(ctx, ext)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to seed agent extension", goerr.V("index", i))
		}
		summary.ExtensionsWritten++
		logger.Debug("seeded agent extension",
			"agent_id", stored.AgentID,
			"extension", stored.ID().Ref().String(),
			"version", stored.Version)
	}

	logger.Info("seed applied",
		"tools", summary.Tools,
		"contexts", summary.Contexts,
		"definitions_written", summary.DefinitionsWritten,
		"definitions_unchanged", summary.DefinitionsUnchanged,
		"extensions_written", summary.ExtensionsWritten,
		"extensions_unchanged", summary.ExtensionsUnchanged)

	return &summary, nil
}

// Export builds a document from the catalogs and the latest stored version
// of every definition and extension
func Export(ctx context.Context, reg interfaces.Registry, tools, contexts interfaces.Catalog) (*Document, error) {
	doc := &Document{
		Tools:    tools.List(),
		Contexts: contexts.List(),
	}

	ids, err := reg.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		def, err := latestDefinition(ctx, reg, id)
		if err != nil {
			return nil, err
		}
		if def == nil {
			continue
		}
		entry, err := fromDefinition(def)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to export agent definition", goerr.TV(apperr.AgentIDKey, id))
		}
		doc.Definitions = append(doc.Definitions, entry)
	}

	extIDs, err := reg.ListAllExtensions(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range extIDs {
		ext, err := reg.GetExtension(ctx, id.AgentID, id.Type, id.Key)
		if err != nil {
			return nil, err
		}
		if ext == nil {
			continue
		}
		entry, err := fromExtension(ext)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to export agent extension",
				goerr.TV(apperr.AgentIDKey, id.AgentID),
				goerr.TV(apperr.ExtensionTypeKey, id.Type),
				goerr.TV(apperr.ExtensionKeyKey, id.Key))
		}
		doc.Extensions = append(doc.Extensions, entry)
	}

	return doc, nil
}

// Save encodes doc and writes it under key
func Save(ctx context.Context, storage interfaces.StorageAdapter, key string, doc *Document) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if err := storage.Put(ctx, key, data); err != nil {
		return goerr.Wrap(err, "failed to write snapshot", goerr.TV(apperr.StorageKeyKey, key))
	}

	ctxlog.From(ctx).Info("snapshot saved",
		"key", key,
		"definitions", len(doc.Definitions),
		"extensions", len(doc.Extensions))
	return nil
}

// latestDefinition returns the newest version of agentID whether or not it
// is active, or nil if there is none
func latestDefinition(ctx context.Context, reg interfaces.Registry, agentID string) (*agent.Definition, error) {
	history, err := reg.GetDefinitionHistory(ctx, agentID, 1)
	if err != nil {
		if errors.Is(err, agent.ErrDefinitionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}
	return history[0], nil
}

func sameDefinition(a, b *agent.Definition) bool {
	return bytes.Equal(definitionPayload(a), definitionPayload(b))
}

func definitionPayload(def *agent.Definition) []byte {
	c := def.Copy()
	c.VersionID = ""
	c.Version = 0
	c.CreatedAt = time.Time{}
	data, _ := json.Marshal(c)
	return data
}

func sameExtension(a, b *agent.Extension) bool {
	return bytes.Equal(extensionPayload(a), extensionPayload(b))
}

func extensionPayload(ext *agent.Extension) []byte {
	c := *ext
	c.VersionID = ""
	c.Version = 0
	c.CreatedAt = time.Time{}
	data, _ := json.Marshal(&c)
	return data
}
