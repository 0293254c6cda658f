// Package fixedarray provides an array whose length is fixed at construction.
//
// An Array is the unit of storage of the chunked containers: each chunk is
// one Array allocated once and never resized, so element addresses stay
// stable for the life of the chunk.
package fixedarray
