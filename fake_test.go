package retriever

import (
	"context"

	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
)

// fakeRetriever implements the subset of the generated service client the
// tests exercise, recording every request it sees. Unimplemented methods
// panic via the embedded nil interface, which is what a test hitting an
// unexpected RPC deserves.
type fakeRetriever struct {
	pb.RetrieverServiceClient

	calls []string

	corpora   map[string]*pb.Corpus
	documents map[string]*pb.Document
	chunks    map[string]*pb.Chunk

	lastUpdateCorpus   *pb.UpdateCorpusRequest
	lastUpdateDocument *pb.UpdateDocumentRequest
	lastUpdateChunk    *pb.UpdateChunkRequest
	lastBatchUpdate    *pb.BatchUpdateChunksRequest
	lastBatchCreate    *pb.BatchCreateChunksRequest
	lastBatchDelete    *pb.BatchDeleteChunksRequest
	lastCreateDocument *pb.CreateDocumentRequest
	lastCreateChunk    *pb.CreateChunkRequest
	lastQueryCorpus    *pb.QueryCorpusRequest
	lastQueryDocument  *pb.QueryDocumentRequest

	documentPages []*pb.ListDocumentsResponse
	chunkPages    []*pb.ListChunksResponse
	queryChunks   []*pb.RelevantChunk
}

func newFakeRetriever() *fakeRetriever {
	return &fakeRetriever{
		corpora:   make(map[string]*pb.Corpus),
		documents: make(map[string]*pb.Document),
		chunks:    make(map[string]*pb.Chunk),
	}
}

// newTestClient wires a Client directly onto the fake, no connection.
func newTestClient(f *fakeRetriever) *Client {
	return &Client{rs: f}
}

func (f *fakeRetriever) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRetriever) CreateCorpus(_ context.Context, req *pb.CreateCorpusRequest, _ ...grpc.CallOption) (*pb.Corpus, error) {
	f.record("CreateCorpus")
	out := proto.Clone(req.GetCorpus()).(*pb.Corpus)
	if out.GetName() == "" {
		out.Name = "corpora/generated"
	}
	f.corpora[out.GetName()] = out
	return out, nil
}

func (f *fakeRetriever) GetCorpus(_ context.Context, req *pb.GetCorpusRequest, _ ...grpc.CallOption) (*pb.Corpus, error) {
	f.record("GetCorpus")
	if co, ok := f.corpora[req.GetName()]; ok {
		return co, nil
	}
	return nil, status.Error(codes.NotFound, "corpus not found")
}

func (f *fakeRetriever) UpdateCorpus(_ context.Context, req *pb.UpdateCorpusRequest, _ ...grpc.CallOption) (*pb.Corpus, error) {
	f.record("UpdateCorpus")
	f.lastUpdateCorpus = req
	return req.GetCorpus(), nil
}

func (f *fakeRetriever) DeleteCorpus(_ context.Context, req *pb.DeleteCorpusRequest, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.record("DeleteCorpus")
	delete(f.corpora, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeRetriever) QueryCorpus(_ context.Context, req *pb.QueryCorpusRequest, _ ...grpc.CallOption) (*pb.QueryCorpusResponse, error) {
	f.record("QueryCorpus")
	f.lastQueryCorpus = req
	return &pb.QueryCorpusResponse{RelevantChunks: f.queryChunks}, nil
}

func (f *fakeRetriever) CreateDocument(_ context.Context, req *pb.CreateDocumentRequest, _ ...grpc.CallOption) (*pb.Document, error) {
	f.record("CreateDocument")
	f.lastCreateDocument = req
	out := proto.Clone(req.GetDocument()).(*pb.Document)
	if out.GetName() == "" {
		out.Name = req.GetParent() + "/documents/generated"
	}
	f.documents[out.GetName()] = out
	return out, nil
}

func (f *fakeRetriever) GetDocument(_ context.Context, req *pb.GetDocumentRequest, _ ...grpc.CallOption) (*pb.Document, error) {
	f.record("GetDocument")
	if d, ok := f.documents[req.GetName()]; ok {
		return d, nil
	}
	return nil, status.Error(codes.NotFound, "document not found")
}

func (f *fakeRetriever) UpdateDocument(_ context.Context, req *pb.UpdateDocumentRequest, _ ...grpc.CallOption) (*pb.Document, error) {
	f.record("UpdateDocument")
	f.lastUpdateDocument = req
	return req.GetDocument(), nil
}

func (f *fakeRetriever) DeleteDocument(_ context.Context, req *pb.DeleteDocumentRequest, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.record("DeleteDocument")
	delete(f.documents, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeRetriever) ListDocuments(_ context.Context, req *pb.ListDocumentsRequest, _ ...grpc.CallOption) (*pb.ListDocumentsResponse, error) {
	f.record("ListDocuments")
	for i, page := range f.documentPages {
		token := ""
		if i > 0 {
			token = f.documentPages[i-1].GetNextPageToken()
		}
		if req.GetPageToken() == token {
			return page, nil
		}
	}
	return &pb.ListDocumentsResponse{}, nil
}

func (f *fakeRetriever) QueryDocument(_ context.Context, req *pb.QueryDocumentRequest, _ ...grpc.CallOption) (*pb.QueryDocumentResponse, error) {
	f.record("QueryDocument")
	f.lastQueryDocument = req
	return &pb.QueryDocumentResponse{RelevantChunks: f.queryChunks}, nil
}

func (f *fakeRetriever) CreateChunk(_ context.Context, req *pb.CreateChunkRequest, _ ...grpc.CallOption) (*pb.Chunk, error) {
	f.record("CreateChunk")
	f.lastCreateChunk = req
	out := proto.Clone(req.GetChunk()).(*pb.Chunk)
	if out.GetName() == "" {
		out.Name = req.GetParent() + "/chunks/generated"
	}
	f.chunks[out.GetName()] = out
	return out, nil
}

func (f *fakeRetriever) BatchCreateChunks(_ context.Context, req *pb.BatchCreateChunksRequest, _ ...grpc.CallOption) (*pb.BatchCreateChunksResponse, error) {
	f.record("BatchCreateChunks")
	f.lastBatchCreate = req
	resp := &pb.BatchCreateChunksResponse{}
	for _, r := range req.GetRequests() {
		resp.Chunks = append(resp.Chunks, r.GetChunk())
	}
	return resp, nil
}

func (f *fakeRetriever) GetChunk(_ context.Context, req *pb.GetChunkRequest, _ ...grpc.CallOption) (*pb.Chunk, error) {
	f.record("GetChunk")
	if ch, ok := f.chunks[req.GetName()]; ok {
		return ch, nil
	}
	return nil, status.Error(codes.NotFound, "chunk not found")
}

func (f *fakeRetriever) UpdateChunk(_ context.Context, req *pb.UpdateChunkRequest, _ ...grpc.CallOption) (*pb.Chunk, error) {
	f.record("UpdateChunk")
	f.lastUpdateChunk = req
	return req.GetChunk(), nil
}

func (f *fakeRetriever) BatchUpdateChunks(_ context.Context, req *pb.BatchUpdateChunksRequest, _ ...grpc.CallOption) (*pb.BatchUpdateChunksResponse, error) {
	f.record("BatchUpdateChunks")
	f.lastBatchUpdate = req
	resp := &pb.BatchUpdateChunksResponse{}
	for _, r := range req.GetRequests() {
		resp.Chunks = append(resp.Chunks, r.GetChunk())
	}
	return resp, nil
}

func (f *fakeRetriever) ListChunks(_ context.Context, req *pb.ListChunksRequest, _ ...grpc.CallOption) (*pb.ListChunksResponse, error) {
	f.record("ListChunks")
	for i, page := range f.chunkPages {
		token := ""
		if i > 0 {
			token = f.chunkPages[i-1].GetNextPageToken()
		}
		if req.GetPageToken() == token {
			return page, nil
		}
	}
	return &pb.ListChunksResponse{}, nil
}

func (f *fakeRetriever) DeleteChunk(_ context.Context, req *pb.DeleteChunkRequest, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.record("DeleteChunk")
	delete(f.chunks, req.GetName())
	return &emptypb.Empty{}, nil
}

func (f *fakeRetriever) BatchDeleteChunks(_ context.Context, req *pb.BatchDeleteChunksRequest, _ ...grpc.CallOption) (*emptypb.Empty, error) {
	f.record("BatchDeleteChunks")
	f.lastBatchDelete = req
	return &emptypb.Empty{}, nil
}
