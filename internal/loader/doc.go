// Package loader imports homogeneous tables from SafeTensors files.
//
// SafeTensors (the Hugging Face weight format) stores named C-order tensors
// after a JSON header. Each tensor becomes one row-major table:
//   - scalars become 1x1 tables
//   - vectors of length n become n×1 tables
//   - tensors of shape [d0, d1, ..., dk] become d0 × (d1·...·dk) tables
//
// F32, F64, I32, I64 and U8 tensors keep their element type. BOOL tensors
// become uint8 tables; F16 and BF16 tensors are widened to float32.
//
// Example:
//
//	r, err := loader.OpenSafeTensors("model.safetensors")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	tables, err := r.LoadAll()
package loader
