package core

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/EmundoT/connected-lint/internal/purl"
	"github.com/EmundoT/connected-lint/internal/sbom"
	"github.com/EmundoT/connected-lint/internal/types"
	"github.com/EmundoT/connected-lint/internal/version"
	"github.com/google/uuid"
	"github.com/spdx/tools-golang/json"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/spdx/v2/common"
	spdx23 "github.com/spdx/tools-golang/spdx/v2/v2_3"
)

// InventoryFormat represents supported plugin inventory formats
type InventoryFormat string

const (
	// InventoryFormatCycloneDX is the CycloneDX 1.5 JSON format
	InventoryFormatCycloneDX InventoryFormat = "cyclonedx"
	// InventoryFormatSPDX is the SPDX 2.3 JSON format
	InventoryFormatSPDX InventoryFormat = "spdx"
)

// InventoryGenerator renders the plugins of the stored global snapshot as a bill of materials.
type InventoryGenerator struct {
	store     SnapshotStore
	serverID  string
	serverURL string
	now       func() time.Time
}

// NewInventoryGenerator creates an InventoryGenerator over store.
func NewInventoryGenerator(store SnapshotStore, serverID, serverURL string) *InventoryGenerator {
	return &InventoryGenerator{
		store:     store,
		serverID:  sbom.ValidateServerName(serverID),
		serverURL: serverURL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Generate creates an inventory in the specified format
func (g *InventoryGenerator) Generate(format InventoryFormat) ([]byte, error) {
	global := g.store.Get()
	if global == nil {
		return nil, NewPreconditionFailedError("generate plugin inventory", "storage was never updated")
	}

	switch format {
	case InventoryFormatCycloneDX:
		return g.generateCycloneDX(global)
	case InventoryFormatSPDX:
		return g.generateSPDX(global)
	default:
		return nil, NewValidationError("format", fmt.Sprintf("unknown inventory format %q (expected cyclonedx or spdx)", format))
	}
}

func (g *InventoryGenerator) generateCycloneDX(global *types.GlobalSnapshot) ([]byte, error) {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Version = 1
	bom.Metadata = &cdx.Metadata{
		Timestamp: g.now().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Tools: &[]cdx.Tool{
				{Vendor: "connected-lint", Name: "connected-lint", Version: version.GetVersion()},
			},
		},
		Component: &cdx.Component{
			Type:    cdx.ComponentTypeApplication,
			BOMRef:  "server@" + global.ServerVersion,
			Name:    g.serverID,
			Version: global.ServerVersion,
			Properties: &[]cdx.Property{
				{Name: "connected-lint:sync_id", Value: global.SyncID},
				{Name: "connected-lint:captured_at", Value: global.CapturedAt.Format(time.RFC3339)},
			},
		},
	}

	keys := sortedKeys(global.PluginVersions)
	components := make([]cdx.Component, 0, len(keys))
	for _, key := range keys {
		v := global.PluginVersions[key]
		components = append(components, cdx.Component{
			Type:       cdx.ComponentTypeLibrary,
			BOMRef:     sbom.GenerateBOMRef(sbom.PluginIdentity{Key: key, Version: v}),
			Name:       key,
			Version:    v,
			PackageURL: purl.FromPlugin(g.serverURL, key, v).String(),
		})
	}
	bom.Components = &components

	var buf bytes.Buffer
	encoder := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return nil, fmt.Errorf("encode CycloneDX: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *InventoryGenerator) generateSPDX(global *types.GlobalSnapshot) ([]byte, error) {
	doc := &spdx23.Document{
		SPDXVersion:       spdx.Version,
		DataLicense:       spdx.DataLicense,
		SPDXIdentifier:    common.ElementID(sbom.SPDXDocumentID),
		DocumentName:      g.serverID + "-plugin-inventory",
		DocumentNamespace: sbom.BuildSPDXNamespace("", g.serverID, uuid.New().String()),
		CreationInfo: &spdx23.CreationInfo{
			Created: g.now().Format(time.RFC3339),
			Creators: []common.Creator{
				{CreatorType: "Tool", Creator: "connected-lint-" + version.GetVersion()},
			},
		},
	}

	for _, key := range sortedKeys(global.PluginVersions) {
		v := global.PluginVersions[key]
		id := common.ElementID(sbom.GenerateSPDXID(sbom.PluginIdentity{Key: key, Version: v}))
		doc.Packages = append(doc.Packages, &spdx23.Package{
			PackageName:             key,
			PackageSPDXIdentifier:   id,
			PackageVersion:          v,
			PackageDownloadLocation: "NOASSERTION",
			FilesAnalyzed:           false,
			PackageLicenseDeclared:  "NOASSERTION",
			PackageLicenseConcluded: "NOASSERTION",
			PackageCopyrightText:    "NOASSERTION",
			PackageComment:          sbom.SyncComment(global.ServerVersion, global.SyncID, global.CapturedAt),
			PackageExternalReferences: []*spdx23.PackageExternalReference{
				{Category: common.CategoryPackageManager, RefType: "purl", Locator: purl.FromPlugin(g.serverURL, key, v).String()},
			},
		})
		// RefB must match the package SPDXID exactly, including the "Package-" prefix
		doc.Relationships = append(doc.Relationships, &spdx23.Relationship{
			RefA:         common.MakeDocElementID("", sbom.SPDXDocumentID),
			RefB:         common.MakeDocElementID("", string(id)),
			Relationship: "DESCRIBES",
		})
	}

	var buf bytes.Buffer
	if err := json.Write(doc, &buf); err != nil {
		return nil, fmt.Errorf("encode SPDX: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
