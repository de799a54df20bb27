package ros

// Time is the stamp layout of ROS messages as decoded from a bag.
type Time struct {
	Secs  int64
	Nsecs int64
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32
	Stamp   Time
	FrameID string `mapstructure:"frame_id"`
}

// Vector3 is geometry_msgs/Vector3.
type Vector3 struct {
	X float64
	Y float64
	Z float64
}

// Quaternion is geometry_msgs/Quaternion.
type Quaternion struct {
	X float64
	Y float64
	Z float64
	W float64
}

// TransformStamped is geometry_msgs/TransformStamped.
type TransformStamped struct {
	Header       Header
	ChildFrameID string `mapstructure:"child_frame_id"`
	Transform    struct {
		Translation Vector3
		Rotation    Quaternion
	}
}

// TFMessage is one tf2_msgs/TFMessage record of a bag, with the time it was recorded at.
type TFMessage struct {
	Meta Time
	Data struct {
		Transforms []TransformStamped
	}
}
