// Package checkpoint persists intermediate results between runs so an
// interrupted pipeline resumes without repeating finished work.
//
// A Store holds a three-level tree, category -> parent -> key -> payload,
// which matches how songs are organised: genre, artist, song. The tree is
// serialized with MessagePack.
//
// # Resume
//
//	store := checkpoint.New[model.Lyrics]("lyrics.msgpack")
//	if err := store.Load(); err != nil {
//	    return err
//	}
//	todo := checkpoint.Pending(store, items) // items not yet stored
//	for _, batch := range model.Batches(todo, 1000) {
//	    ... process, store.Put(...) ...
//	    if err := store.Save(); err != nil {
//	        return err
//	    }
//	}
//
// Save writes to a temporary file in the same directory and renames it over
// the target, so a crash mid-write leaves the previous checkpoint intact.
package checkpoint
