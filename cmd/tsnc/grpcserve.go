package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/funvibe/tsnc/internal/bindings"
	"github.com/funvibe/tsnc/internal/pipeline"
)

// compileServiceProto is the CompileService schema, parsed in-memory by
// protoparse rather than read from a file on disk — grounded on the
// teacher's grpcLoadProto/grpcRegister pattern in
// internal/evaluator/builtins_grpc.go, which builds a grpc.ServiceDesc
// around a dynamic.Message using a *desc.ServiceDescriptor resolved at
// runtime instead of protoc-generated Go stubs.
const compileServiceProto = `
syntax = "proto3";
package tsnc;

message CompileRequest {
  map<string, string> sources = 1;
}

message CompileFile {
  string path = 1;
  string content = 2;
}

message CompileResponse {
  repeated CompileFile outputs = 1;
  repeated string diagnostics = 2;
  bool ok = 3;
}

service CompileService {
  rpc Compile(CompileRequest) returns (CompileResponse);
}
`

const compileServiceProtoFile = "tsnc_compile_service.proto"

// handleGRPCServe runs the gRPC compile service (spec_full §6): a
// CompileService.Compile RPC taking a module-path -> source-text map
// and returning the emitted C# files plus a flattened diagnostics list.
func handleGRPCServe() bool {
	if len(os.Args) < 2 || os.Args[1] != "-serve" {
		return false
	}
	addr := "localhost:9421"
	for i := 2; i < len(os.Args); i++ {
		if os.Args[i] == "-addr" && i+1 < len(os.Args) {
			i++
			addr = os.Args[i]
		}
	}

	sd, err := loadCompileServiceDescriptor()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	server := grpc.NewServer()
	handler := &compileServiceHandler{sd: sd, bindingTable: bindings.Empty()}
	server.RegisterService(handler.serviceDesc(), handler)

	fmt.Printf("tsnc compile service listening on %s\n", addr)
	if err := server.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return true
}

func loadCompileServiceDescriptor() (*desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			compileServiceProtoFile: compileServiceProto,
		}),
	}
	fds, err := parser.ParseFiles(compileServiceProtoFile)
	if err != nil {
		return nil, fmt.Errorf("parsing compile service descriptor: %w", err)
	}
	for _, svc := range fds[0].GetServices() {
		if svc.GetName() == "CompileService" {
			return svc, nil
		}
	}
	return nil, fmt.Errorf("CompileService not found in descriptor")
}

type compileServiceHandler struct {
	sd           *desc.ServiceDescriptor
	bindingTable *bindings.Table
}

// serviceDesc builds the grpc.ServiceDesc from the resolved
// *desc.ServiceDescriptor the same way builtinGrpcRegister does: one
// grpc.MethodDesc per unary method, dispatching through a single
// HandleUnary-shaped closure rather than protoc-generated stubs.
func (h *compileServiceHandler) serviceDesc() *grpc.ServiceDesc {
	sd := &grpc.ServiceDesc{
		ServiceName: h.sd.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    h.sd.GetFile().GetName(),
	}
	for _, method := range h.sd.GetMethods() {
		md := method
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*compileServiceHandler).handleCompile(ctx, md, dec)
			},
		})
	}
	return sd
}

func (h *compileServiceHandler) handleCompile(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	reqMsg := dynamic.NewMessage(md.GetInputType())
	if err := dec(reqMsg); err != nil {
		return nil, err
	}

	sources := map[string]string{}
	sourcesFd := reqMsg.GetMessageDescriptor().FindFieldByName("sources")
	if sourcesFd != nil {
		if m, ok := reqMsg.GetField(sourcesFd).(map[interface{}]interface{}); ok {
			for k, v := range m {
				sources[fmt.Sprint(k)] = fmt.Sprint(v)
			}
		}
	}

	results, diags := pipeline.CompileProgram(uuid.NewString(), sources, buildResolveImport(sources), h.bindingTable)

	respMsg := dynamic.NewMessage(md.GetOutputType())
	outputsFd := md.GetOutputType().FindFieldByName("outputs")
	for _, res := range results {
		out := dynamic.NewMessage(outputsFd.GetMessageType())
		pathFd := out.GetMessageDescriptor().FindFieldByName("path")
		contentFd := out.GetMessageDescriptor().FindFieldByName("content")
		out.SetField(pathFd, res.Path)
		out.SetField(contentFd, res.Text)
		respMsg.AddRepeatedField(outputsFd, out)
	}

	diagsFd := md.GetOutputType().FindFieldByName("diagnostics")
	for _, d := range diags.All() {
		respMsg.AddRepeatedField(diagsFd, d.Error())
	}

	okFd := md.GetOutputType().FindFieldByName("ok")
	respMsg.SetField(okFd, !diags.HasFatal())

	return respMsg, nil
}
