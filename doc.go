/*
go-flowvel estimates the horizontal ground velocity of a vehicle carrying a
downward-facing camera.  It selects sparse trackable features in each frame,
tracks them to the next frame using pyramidal Lucas-Kanade optical flow via
GoCV/OpenCV, and converts the resulting pixel displacements into real-world
velocities from the camera optics (field of view) and the known height above
ground.

It targets UAV and ground-robot companion computers that need a velocity
estimate without GPS, such as indoor flight or GPS-denied navigation.

See example code and usage in the examples subdirectory.
*/
package flowvel
