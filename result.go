package transload

import "github.com/zulfikawr/transload/internal/leg"

// assembleResult implements the Result Assembler (spec §4.6): per-leg
// state folds into UploadResult in input order; a failed leg carries its
// last-known uploadedBytes/fileName/declaredSize, a nil response, an
// error string, and no md5.
func assembleResult(downloadURL string, contentLength uint64, filename, sessionMD5 string, local LocalWriter, legResults []leg.Result) *TransloadResult {
	uploads := make([]UploadResult, len(legResults))
	for i, r := range legResults {
		u := UploadResult{
			UploadURL:        r.UploadURL,
			FileName:         r.FileName,
			Size:             r.DeclaredSize,
			UploadedByes:     r.UploadedBytes,
			RandomBytesCount: r.RandomBytesCount,
			Response:         r.Response,
		}
		if r.Err != nil {
			u.Error = r.Err.Error()
		} else {
			u.MD5 = r.MD5
		}
		uploads[i] = u
	}

	result := &TransloadResult{
		URL:      downloadURL,
		Size:     contentLength,
		Filename: filename,
		MD5:      sessionMD5,
		Uploads:  uploads,
	}
	if local != nil {
		result.Local = &LocalResult{Path: local.Path(), Size: uint64(local.Size())}
	}
	return result
}
