package bindings

import (
	"fmt"
	"os"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// LoadDescriptorCatalogue loads a pre-serialised FileDescriptorSet
// describing a binding catalogue and converts each message named
// `*Binding` into a TypeBinding, giving a second path (besides YAML)
// for shipping large binding tables as compiled descriptors (spec §4.6).
//
// Each binding message contributes the declared default values of its
// string fields surface, namespace and name, read from the message
// descriptor rather than from compiled structs. A missing field reads as
// "". Arity, Immutable and Members are not read from the descriptor and
// stay at their zero values.
func LoadDescriptorCatalogue(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor catalogue: %w", err)
	}
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return nil, fmt.Errorf("parsing descriptor set %s: %w", path, err)
	}
	files, err := desc.CreateFileDescriptorsFromSet(&fds)
	if err != nil {
		return nil, fmt.Errorf("resolving descriptor set %s: %w", path, err)
	}

	cfg := Config{}
	for _, fd := range files {
		for _, msg := range fd.GetMessageTypes() {
			if !isBindingMessage(msg) {
				continue
			}
			cfg.Types = append(cfg.Types, TypeBinding{
				Surface:   fieldDefault(msg, "surface"),
				Namespace: fieldDefault(msg, "namespace"),
				Name:      fieldDefault(msg, "name"),
			})
		}
	}
	return FromConfig(cfg), nil
}

func isBindingMessage(msg *desc.MessageDescriptor) bool {
	for _, suffix := range []string{"Binding", "TypeBinding"} {
		if len(msg.GetName()) >= len(suffix) && msg.GetName()[len(msg.GetName())-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func fieldDefault(msg *desc.MessageDescriptor, name string) string {
	fd := msg.FindFieldByName(name)
	if fd == nil {
		return ""
	}
	return fd.GetDefaultValue().(string)
}

// CompileProtoCatalogue is a build-time helper: it parses a .proto
// binding-catalogue source with protoparse (no protoc binary
// required) and serialises its FileDescriptorSet, the inverse of
// LoadDescriptorCatalogue, for tooling that authors catalogues as
// .proto rather than hand-built descriptor bytes.
func CompileProtoCatalogue(importPaths []string, protoFile string) (*descriptorpb.FileDescriptorSet, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	fds, err := parser.ParseFiles(protoFile)
	if err != nil {
		return nil, fmt.Errorf("compiling proto catalogue %s: %w", protoFile, err)
	}
	set := &descriptorpb.FileDescriptorSet{}
	for _, fd := range fds {
		set.File = append(set.File, fd.AsFileDescriptorProto())
	}
	return set, nil
}
