package logtail

import "github.com/fsnotify/fsnotify"

type event struct {
	name      string
	recreated bool
}

// watch wraps fsnotify on a directory and reduces its events to the two
// things Follow cares about: "something happened to this name" and "the
// file was replaced and must be reopened".
func watch(dir string) (<-chan event, <-chan error, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, nil, nil, err
	}

	events := make(chan event, 16)
	quit := make(chan struct{})
	go func() {
		defer close(events)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				e := event{
					name:      ev.Name,
					recreated: ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0,
				}
				select {
				case events <- e:
				case <-quit:
					return
				}
			case <-quit:
				return
			}
		}
	}()

	closeWatch := func() {
		close(quit)
		_ = w.Close()
	}
	return events, w.Errors, closeWatch, nil
}
